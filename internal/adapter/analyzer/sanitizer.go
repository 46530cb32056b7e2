package analyzer

import (
	"regexp"
	"strings"
)

// DefaultMaxLen is the default cap applied to sanitized user text.
const DefaultMaxLen = 1500

var (
	ctrlRe    = regexp.MustCompile("[\x00-\x1f\x7f]")
	scriptRe  = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)
	onAttrRe  = regexp.MustCompile(`(?is)\son[a-z]+\s*=\s*("[^"]*"|'[^']*')`)
	tagRe     = regexp.MustCompile(`</?[^>]+>`)
	trailWSRe = regexp.MustCompile("[ \t]+\n")
)

// Sanitize turns raw user input into plain text safe to splice into a
// prompt: control characters, <script> blocks, on*= attributes and
// residual HTML tags are removed, whitespace is normalized and the
// result is hard-cut at maxLen characters. Always returns a string,
// worst case empty. This is a best-effort filter for pasted markup,
// not a security boundary.
func Sanitize(input string, maxLen int) string {
	out := ctrlRe.ReplaceAllString(input, "")
	out = scriptRe.ReplaceAllString(out, "")
	out = onAttrRe.ReplaceAllString(out, "")
	out = tagRe.ReplaceAllString(out, "")
	out = trailWSRe.ReplaceAllString(out, "\n")
	out = strings.TrimSpace(out)

	if maxLen > 0 {
		if r := []rune(out); len(r) > maxLen {
			out = string(r[:maxLen])
		}
	}
	return out
}

// SanitizeUserText sanitizes with the default length cap.
func SanitizeUserText(s string) string {
	return Sanitize(s, DefaultMaxLen)
}
