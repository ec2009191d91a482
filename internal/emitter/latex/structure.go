package latex

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/emitter"
)

var commentBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// commentSafe keeps text on a single comment line.
func commentSafe(s string) string {
	return commentBreaks.Replace(strings.TrimSpace(s))
}

func (e *Emitter) AnnexStart() string { return "\\anexos\n\n" }
func (e *Emitter) SectionEnd() string { return "\n\n" }

func (e *Emitter) Heading(level emitter.HeadingLevel, title string) string {
	cmd := "section"
	switch level {
	case emitter.LevelSubsection:
		cmd = "subsection"
	case emitter.LevelSubsubsection:
		cmd = "subsubsection"
	case emitter.LevelParagraph:
		cmd = "paragraph"
	}
	return "\\" + cmd + "{" + Escape(title) + "}\n\n"
}

// SectionCard renders a numbered part title page; the caption is the raw
// section body, escaped but not parsed.
func (e *Emitter) SectionCard(n int, title, caption string) string {
	return "\\portadaseccion{" + strconv.Itoa(n) + "}{" + Escape(title) + "}{" + Escape(caption) + "}\n\n"
}

func (e *Emitter) Directory(entries []emitter.DirectoryEntry) string {
	var b strings.Builder
	b.WriteString("\\begin{center}\n")
	for _, entry := range entries {
		b.WriteString("{\\patriafont\\fontsize{12}{14}\\selectfont\\color{gobmxGuinda} " + Escape(entry.Name) + "}\\par\n")
		if entry.Role != "" {
			b.WriteString("{\\patriafont\\fontsize{9}{11}\\selectfont " + Escape(entry.Role) + "}\\\\[0.5cm]\n")
		} else {
			b.WriteString("\\\\[0.5cm]\n")
		}
	}
	b.WriteString("\\end{center}")
	return b.String()
}

func (e *Emitter) LineBreak() string      { return "\\\\\n" }
func (e *Emitter) ParagraphBreak() string { return "\\\\[0.5cm]\n" }
