package latex

import "strings"

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape replaces the characters LaTeX reserves with literal-safe commands.
// It is a single pass, so the braces it emits are never escaped again.
func Escape(text string) string {
	if text == "" {
		return ""
	}
	return escaper.Replace(text)
}

func (e *Emitter) Escape(text string) string { return Escape(text) }
