package lint

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

var (
	reListLine  = regexp.MustCompile(`^\s*[-*•]\s+`)
	reTagStart  = regexp.MustCompile(`(?i)^\s*\[\[(ejemplo|caja|alerta|info|destacado|recuadro|figura|tabla|ecuacion)(:|\]\])`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// Normalize rewrites section text into the shape the content parser reads
// best: LF newlines, no trailing spaces, no blank lines inside a list, a
// blank line between a list and a following block or float tag, and at
// most one blank line anywhere.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" && len(out) > 0 && reListLine.MatchString(out[len(out)-1]) {
			if reListLine.MatchString(nextNonBlank(lines[i+1:])) {
				continue
			}
		}
		if reTagStart.MatchString(line) && len(out) > 0 && reListLine.MatchString(out[len(out)-1]) {
			out = append(out, "")
		}
		out = append(out, line)
	}

	return strings.TrimSpace(reBlankRuns.ReplaceAllString(strings.Join(out, "\n"), "\n\n"))
}

func nextNonBlank(lines []string) string {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return l
		}
	}
	return ""
}

// NormalizeSet normalizes every section body and returns the updated set
// with the orders of the sections that changed.
func NormalizeSet(set records.Set) (records.Set, []string) {
	var changed []string
	sections := make([]records.Section, len(set.Sections))
	for i, s := range set.Sections {
		if n := Normalize(s.Body); n != s.Body {
			s.Body = n
			changed = append(changed, rowKey(s.Order))
		}
		sections[i] = s
	}
	set.Sections = sections
	return set, changed
}
