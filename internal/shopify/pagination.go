package shopify

import (
	"net/url"
	"strings"
)

// ParseNextPageInfo returns the page_info cursor of the rel="next" entry of a
// Link header, or "" when there is no next page.
//
//	<https://shop/admin/api/2025-01/products.json?limit=250&page_info=abc>; rel="next"
func ParseNextPageInfo(link string) string {
	for _, entry := range strings.Split(link, ",") {
		segments := strings.Split(entry, ";")
		if len(segments) < 2 {
			continue
		}
		isNext := false
		for _, param := range segments[1:] {
			param = strings.TrimSpace(param)
			if param == `rel="next"` || param == "rel=next" {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}
		raw := strings.TrimSpace(segments[0])
		raw = strings.TrimPrefix(raw, "<")
		raw = strings.TrimSuffix(raw, ">")
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return u.Query().Get("page_info")
	}
	return ""
}
