package testutil

import "regexp"

// htmlPattern is one kind of account detail that shows up in captured pages.
type htmlPattern struct {
	re          *regexp.Regexp
	replacement string
	description string
}

var htmlPatterns = []htmlPattern{
	{
		re:          emailAddress,
		replacement: "user@example.com",
		description: "Email address",
	},
	{
		re:          regexp.MustCompile(`(?i)(token|csrf|session|api_?key)(["']?\s*[:=]\s*["']?)[A-Za-z0-9_.-]{20,}`),
		replacement: "${1}${2}" + redacted,
		description: "Token",
	},
	{
		re:          regexp.MustCompile(`(?i)document\.cookie\s*=\s*["'][^"']+["']`),
		replacement: `document.cookie="` + redacted + `"`,
		description: "Cookie",
	},
	{
		re:          regexp.MustCompile(`(?i)(data-user-(?:name|id)=")[^"]*(")`),
		replacement: "${1}" + redacted + "${2}",
		description: "Account attribute",
	},
}

// HTMLRedaction counts the matches of one pattern.
type HTMLRedaction struct {
	Description string
	Count       int
}

// SanitizeHTML redacts account details from a captured dashboard page and
// reports what it replaced.
func SanitizeHTML(html string) (string, []HTMLRedaction) {
	var found []HTMLRedaction
	for _, p := range htmlPatterns {
		n := len(p.re.FindAllStringIndex(html, -1))
		if n == 0 {
			continue
		}
		html = p.re.ReplaceAllString(html, p.replacement)
		found = append(found, HTMLRedaction{Description: p.description, Count: n})
	}
	return html, found
}
