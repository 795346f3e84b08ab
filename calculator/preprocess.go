package calculator

import "strings"

// PreprocessOptions selects the optional rewrites applied to user input.
type PreprocessOptions struct {
	// ReplaceLn rewrites "ln(" to "log(".
	ReplaceLn bool
}

// Preprocess normalizes calculator notation: "^" becomes "**" and,
// optionally, "ln(" becomes "log(".
func Preprocess(text string, opts PreprocessOptions) string {
	text = strings.ReplaceAll(text, "^", "**")
	if opts.ReplaceLn {
		text = strings.ReplaceAll(text, "ln(", "log(")
	}
	return text
}
