package emitter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reLiteralNewline = regexp.MustCompile(`\\n`)
	reTrailingSpace  = regexp.MustCompile(`(?m)[ \t]+$`)
	reManyNewlines   = regexp.MustCompile(`\n{2,}`)
	reSpaceRuns      = regexp.MustCompile(`[ \t]+`)

	rePlaceholder = regexp.MustCompile("\uE000([0-9]+)\uE001")
)

// Inline tag patterns shared by every dialect. Math is matched before tags
// so its content is never rewritten; $$ before $.
var (
	TagDisplayMath = regexp.MustCompile(`\$\$([\s\S]*?)\$\$`)
	TagInlineMath  = regexp.MustCompile(`\$([^$]+)\$`)
	TagParenMath   = regexp.MustCompile(`\\\\?\(([\s\S]*?)\\\\?\)`)
	TagBracketMath = regexp.MustCompile(`\\\\?\[([\s\S]*?)\\\\?\]`)
	TagEquation    = regexp.MustCompile(`\[\[ecuacion:([\s\S]*?)\]\]`)
	TagMath        = regexp.MustCompile(`\[\[math:([\s\S]*?)\]\]`)
	TagCite        = regexp.MustCompile(`\[\[cita:([\s\S]*?)\]\]`)
	TagFrame       = regexp.MustCompile(`\[\[recuadro:([^\]]*)\]\]([\s\S]*?)\[\[/recuadro\]\]`)
	TagNote        = regexp.MustCompile(`\[\[nota:([\s\S]*?)\]\]`)
	TagHighlight   = regexp.MustCompile(`\[\[destacado:([\s\S]*?)\]\]`)
	TagGold        = regexp.MustCompile(`\[\[dorado:([\s\S]*?)\]\]`)
	TagMaroon      = regexp.MustCompile(`\[\[guinda:([\s\S]*?)\]\]`)
)

// NormalizeBreaks turns literal "\n" sequences into newlines, unifies line
// endings, drops trailing blanks, collapses blank-line runs and space runs.
func NormalizeBreaks(s string) string {
	s = reLiteralNewline.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = reTrailingSpace.ReplaceAllString(s, "")
	s = reManyNewlines.ReplaceAllString(s, "\n\n")
	s = reSpaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Protector swaps finished fragments for private-use placeholders so a
// later escaping pass cannot touch them. Nested renders must share one
// Protector and call Restore once, at the top.
type Protector struct {
	saved []string
}

// Keep stores fragment and returns its placeholder.
func (p *Protector) Keep(fragment string) string {
	p.saved = append(p.saved, fragment)
	return "\uE000" + strconv.Itoa(len(p.saved)-1) + "\uE001"
}

// Restore replaces placeholders until none are left.
func (p *Protector) Restore(s string) string {
	for range len(p.saved) + 1 {
		if !rePlaceholder.MatchString(s) {
			break
		}
		s = rePlaceholder.ReplaceAllStringFunc(s, func(m string) string {
			idx, err := strconv.Atoi(rePlaceholder.FindStringSubmatch(m)[1])
			if err != nil || idx >= len(p.saved) {
				return ""
			}
			return p.saved[idx]
		})
	}
	return s
}

// ReplaceGroups calls fn with the submatches of every match of re and
// splices its result in place of the match.
func ReplaceGroups(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		groups := make([]string, len(m)/2)
		for i := range groups {
			if m[2*i] >= 0 {
				groups[i] = s[m[2*i]:m[2*i+1]]
			}
		}
		b.WriteString(fn(groups))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
