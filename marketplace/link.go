package marketplace

import (
	"regexp"
	"strings"
)

// DefaultLinkMarker precedes the store link in product descriptions.
const DefaultLinkMarker = "Подробнее о товаре: "

var (
	anyURLRx   = regexp.MustCompile(`https?://[^\s"'<>]+`)
	storeURLRx = regexp.MustCompile(`https?://store\.steampowered\.com/(?:app|sub|bundle)/\d+[^\s"'<>]*`)
)

// FindProductLink returns the store link of a product: the first URL after
// marker in the product info, otherwise the first store URL anywhere.
func FindProductLink(info, marker string) string {
	if marker != "" {
		if i := strings.Index(info, marker); i >= 0 {
			if link := anyURLRx.FindString(info[i+len(marker):]); link != "" {
				return strings.TrimRight(link, ".,;)")
			}
		}
	}
	return strings.TrimRight(storeURLRx.FindString(info), ".,;)")
}
