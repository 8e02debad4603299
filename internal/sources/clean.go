package sources

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// CleanText strips HTML tags and entities from source-provided text.
// Search APIs wrap matched terms in <b> tags; feeds embed entities.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
