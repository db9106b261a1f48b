package conv

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags
	termPolicy = bluemonday.NewPolicy()
)

func init() {
	// structure html2text knows how to lay out; everything else is dropped
	termPolicy.AllowElements(
		"p", "br", "hr", "blockquote", "pre", "code",
		"b", "strong", "i", "em", "s", "del",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	termPolicy.AllowStandardURLs()
	termPolicy.AllowAttrs("href").OnElements("a")
}

// MarkdownToHTML renders md and strips anything outside the terminal policy.
func MarkdownToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.Render(p.Parse(md), renderer)

	return termPolicy.SanitizeBytes(unsafeHTML)
}

// MarkdownToText turns a model reply written in markdown into plain text for
// the terminal: lists, tables and links keep their shape.
func MarkdownToText(md string) (string, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}

	text, err := html2text.FromString(string(MarkdownToHTML([]byte(md))), html2text.Options{
		OmitLinks:    false,
		PrettyTables: true,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
