package extract

import (
	"strconv"
	"strings"

	"github.com/reviewscope/crawler/internal/platform"
	"github.com/reviewscope/crawler/internal/types"
)

// ProductMetadata extracts name, image and price from a rendered product
// page. The three fields are independent: a missing title never blocks
// image or price extraction, and a page where everything misses still
// yields a metadata record with nil fields.
func ProductMetadata(d *Document, p *platform.Profile) *types.ProductMetadata {
	return productMetadata(d, p, true)
}

// StaticProductMetadata is ProductMetadata without the raw document
// title fallback. A static fetch of a script-driven storefront returns
// a shell page whose <title> is the generic store name; a name must
// come from a profile selector or og:title, or the caller's browser
// fallback never fires.
func StaticProductMetadata(d *Document, p *platform.Profile) *types.ProductMetadata {
	return productMetadata(d, p, false)
}

func productMetadata(d *Document, p *platform.Profile, titleFallback bool) *types.ProductMetadata {
	md := &types.ProductMetadata{Platform: string(p.ID)}

	if name := extractName(d, p, titleFallback); name != "" {
		md.Name = &name
	}
	if img := extractImage(d, p); img != "" {
		md.ImageURL = &img
	}
	if price, ok := extractPrice(d, p); ok {
		md.Price = &price
	}
	return md
}

func extractName(d *Document, p *platform.Profile, titleFallback bool) string {
	if name := d.FirstMatch(p.TitleSelectors); name != "" {
		return name
	}
	if !titleFallback {
		return ""
	}
	// Last resort: the document title.
	return strings.TrimSpace(d.gq.Find("title").First().Text())
}

func extractImage(d *Document, p *platform.Profile) string {
	if img := d.FirstMatch(p.ImageSelectors); img != "" {
		return img
	}
	// Open Graph image survives most markup reshuffles.
	return d.First(platform.CssAttr(`meta[property="og:image"]`, "content"))
}

func extractPrice(d *Document, p *platform.Profile) (int, bool) {
	if p.PriceSelector == "" {
		return 0, false
	}
	digits := digitsOnly(d.First(platform.Css(p.PriceSelector)))
	if digits == "" {
		return 0, false
	}
	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return price, true
}
