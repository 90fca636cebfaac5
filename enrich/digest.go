package enrich

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/sitegrade/browser"
)

// minDigestLength is the minimum extracted text length for readability
// output to be considered the page's main content.
const minDigestLength = 50

// newDigestConverter builds the HTML-to-markdown converter used for the
// enrichment digest. The base plugin strips scripts, styles, and head noise;
// commonmark renders the rest as plain markdown.
func newDigestConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// Digest reduces homepage HTML to a markdown excerpt of at most maxRunes
// runes: readability isolates the main content, then it is converted to
// markdown headed by the page title. Any failure returns an empty digest;
// the enrichment prompt just goes without page content.
func Digest(rawHTML, pageURL string, maxRunes int) string {
	if rawHTML == "" || maxRunes <= 0 {
		return ""
	}

	content := rawHTML
	if parsed, err := nurl.Parse(pageURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
		if err == nil && len(strings.TrimSpace(article.TextContent)) >= minDigestLength {
			content = article.Content
		}
	}

	md, err := newDigestConverter().ConvertString(content, converter.WithDomain(pageURL))
	if err != nil {
		slog.Debug("enrich: digest conversion failed", "url", pageURL, "error", err)
		return ""
	}

	md = strings.TrimSpace(md)
	if title := browser.ExtractTitle([]byte(rawHTML)); title != "" && !strings.HasPrefix(md, "# ") {
		md = strings.TrimSpace("# " + title + "\n\n" + md)
	}
	runes := []rune(md)
	if len(runes) > maxRunes {
		md = string(runes[:maxRunes]) + "\n…"
	}
	return md
}
