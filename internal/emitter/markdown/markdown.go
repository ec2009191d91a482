// Package markdown renders compiled documents as GitHub-flavored Markdown
// with YAML frontmatter, and as standalone HTML through goldmark.
package markdown

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// Emitter implements emitter.Emitter for Markdown.
type Emitter struct{}

// New returns a Markdown emitter.
func New() *Emitter { return &Emitter{} }

func (e *Emitter) Name() string      { return "markdown" }
func (e *Emitter) Extension() string { return ".md" }

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
	`|`, `\|`,
)

// Escape backslash-escapes Markdown punctuation.
func Escape(text string) string { return escaper.Replace(text) }

func (e *Emitter) Escape(text string) string { return Escape(text) }

func (e *Emitter) ListStart() string { return "" }
func (e *Emitter) ListEnd() string   { return "\n" }
func (e *Emitter) BlankLine() string { return "\n" }

func (e *Emitter) ListItem(text string, lookup refs.Lookup) string {
	return "- " + e.RenderInline(text, lookup) + "\n"
}

func (e *Emitter) Line(text string, lookup refs.Lookup) string {
	return e.RenderInline(text, lookup) + "\n"
}

var blockLabels = map[emitter.BlockKind]string{
	emitter.BlockExample:   "Ejemplo",
	emitter.BlockBox:       "Caja",
	emitter.BlockAlert:     "Alerta",
	emitter.BlockInfo:      "Información",
	emitter.BlockHighlight: "Destacado",
	emitter.BlockFrame:     "Recuadro",
}

// WrapBlock renders a block as a blockquote headed by its kind and title.
func (e *Emitter) WrapBlock(kind emitter.BlockKind, title, body string) string {
	head := blockLabels[kind]
	if t := strings.TrimSpace(title); t != "" {
		head += ": " + Escape(t)
	}
	return quote("**"+head+"**\n\n"+strings.TrimRight(body, "\n")) + "\n"
}

func quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (e *Emitter) Unresolved(kind refs.Kind, id string) string {
	return "<!-- Referencia a " + string(kind) + ": " + commentText(id) + " -->\n"
}

// commentText makes id safe inside an HTML comment: no angle brackets, no
// line breaks and no run of dashes, so "-->" can never form.
func commentText(id string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '!':
			return -1
		case '\n', '\r', '\t':
			return ' '
		}
		return r
	}, strings.TrimSpace(id))
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "- ")
}

func (e *Emitter) AnnexStart() string { return "# Anexos\n\n" }
func (e *Emitter) SectionEnd() string { return "\n" }

func (e *Emitter) Heading(level emitter.HeadingLevel, title string) string {
	return strings.Repeat("#", int(level)) + " " + Escape(title) + "\n\n"
}

func (e *Emitter) SectionCard(n int, title, caption string) string {
	out := "# Parte " + strconv.Itoa(n) + ". " + Escape(title) + "\n\n"
	if c := strings.TrimSpace(caption); c != "" {
		out += "*" + Escape(c) + "*\n\n"
	}
	return out
}

func (e *Emitter) Directory(entries []emitter.DirectoryEntry) string {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString("**" + Escape(entry.Name) + "**")
		if entry.Role != "" {
			b.WriteString("  \n" + Escape(entry.Role))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *Emitter) LineBreak() string      { return "  \n" }
func (e *Emitter) ParagraphBreak() string { return "\n\n" }

// anchor is the HTML id of a float, usable as a #fragment.
func anchor(kind refs.Kind, id string) string {
	prefix := "fig-"
	if kind == refs.KindTable {
		prefix = "tab-"
	}
	return prefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(id))
}
