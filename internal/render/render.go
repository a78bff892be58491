package render

import "strings"

// Markdown renders content with a renderer borrowed for opts. It is safe
// for concurrent use.
func Markdown(content string, opts Options) (string, error) {
	opts = normalize(opts)
	tr, err := shared.borrow(opts)
	if err != nil {
		return "", err
	}
	defer shared.release(opts, tr)

	return tr.Render(content)
}

// MarkdownOrPlain renders content and falls back to the raw text when the
// renderer cannot be built. Partial replies are rendered as they grow, so a
// half-written code fence is expected input.
func MarkdownOrPlain(content string, opts Options) string {
	if strings.TrimSpace(content) == "" {
		return content
	}
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
