package platform

// ID identifies a supported storefront platform.
type ID string

const (
	Naver   ID = "naver"
	Coupang ID = "coupang"
)

// SelectorType distinguishes how a selector query is evaluated.
type SelectorType string

const (
	CSS   SelectorType = "css"
	XPath SelectorType = "xpath"
)

// Selector is a single DOM query. Attr names the attribute to read;
// empty means element text.
type Selector struct {
	Type  SelectorType
	Query string
	Attr  string
}

// Css is shorthand for a CSS text selector.
func Css(query string) Selector { return Selector{Type: CSS, Query: query} }

// CssAttr is shorthand for a CSS attribute selector.
func CssAttr(query, attr string) Selector {
	return Selector{Type: CSS, Query: query, Attr: attr}
}

// Xp is shorthand for an XPath text selector.
func Xp(query string) Selector { return Selector{Type: XPath, Query: query} }

// Profile holds everything the engine needs to know about one platform:
// domain patterns for classification, metadata selectors, and review
// pagination selectors. Pure data; supporting a new platform means
// adding a Profile, never new traversal code.
type Profile struct {
	ID ID

	// Domains are substring patterns matched against the lowercased URL.
	Domains []string

	// ProductPathSegment marks a recognizable product URL; when present
	// in the path, Normalize may safely strip the query string.
	ProductPathSegment string

	// Capabilities. A profile missing review selectors must not claim
	// Reviews, and vice versa.
	Metadata bool
	Reviews  bool

	// Metadata extraction, in priority order. Title falls back to the
	// document title, image to the og:image meta tag.
	TitleSelectors []Selector
	ImageSelectors []Selector
	PriceSelector  string

	// Review section navigation.
	ReviewAnchor string // fragment appended to the product URL
	ReviewTab    string
	SortControl  string
	SortLabel    string // visible text of the "sort by newest" control

	// Per-review field selectors.
	ReviewList    string
	AuthorSel     string
	DateSel       string
	RatingSel     string
	ContentSel    string
	ReviewImages  string // plain <img> fallback container
	ImageDataAttr string // attribute holding a structured JSON payload
	ImageURLKey   string // key of image URLs inside that payload

	// Pagination widget.
	PageAnchorClass string // class fragment of a page-number anchor
	NextBlockLabel  string // exact visible text of the next-block control
	BlockSize       int    // page numbers visible per block
}

// naverProfile covers Naver smartstore and brand stores. The class-name
// selectors are the obfuscated ones the storefront currently ships;
// they churn without notice, which is why every extraction site
// tolerates a miss.
var naverProfile = Profile{
	ID:                 Naver,
	Domains:            []string{"smartstore.naver.com", "brand.naver.com", "naver.com"},
	ProductPathSegment: "/products/",
	Metadata:           true,
	Reviews:            true,

	TitleSelectors: []Selector{
		Css("._22kNQuEXmb ._copyable"),
		Css("h3._22kNQuEXmb"),
		CssAttr(`meta[property="og:title"]`, "content"),
	},
	ImageSelectors: []Selector{
		CssAttr("img._2RYeHZAP_4", "src"),
		CssAttr(".bd_2DO68 img", "src"),
	},
	PriceSelector: "._1LY7DqCnwR",

	ReviewAnchor: "#REVIEW",
	ReviewTab:    `a[href*="#REVIEW"]`,
	SortControl:  "a.JBnM4aPJaH",
	SortLabel:    "최신순",

	ReviewList:    "ul.RR2FSL9wTc > li, .PxsZltB5tV",
	AuthorSel:     ".Db9Dtnf7gY strong.MX91DFZo2F",
	DateSel:       ".Db9Dtnf7gY span.MX91DFZo2F",
	RatingSel:     ".n6zq2yy0KA",
	ContentSel:    ".HakaEZ240l",
	ReviewImages:  ".v9RFkJOz1K img",
	ImageDataAttr: "data-shp-contents",
	ImageURLKey:   "imgUrl",

	PageAnchorClass: "hyY6CXtbcn",
	NextBlockLabel:  "다음",
	BlockSize:       10,
}

// coupangProfile is metadata-only. Review crawling on Coupang needs a
// different anti-bot posture and is not wired yet.
var coupangProfile = Profile{
	ID:       Coupang,
	Domains:  []string{"coupang.com"},
	Metadata: true,
	Reviews:  false,

	TitleSelectors: []Selector{
		Css(".prod-buy-header__title"),
		CssAttr(`meta[property="og:title"]`, "content"),
	},
	ImageSelectors: []Selector{
		CssAttr(".prod-image__detail", "src"),
	},
	PriceSelector: ".total-price strong",
}

// registry lists all profiles in classification order; first domain
// match wins.
var registry = []Profile{naverProfile, coupangProfile}

// Lookup returns the profile for a platform id.
func Lookup(id ID) (*Profile, bool) {
	for i := range registry {
		if registry[i].ID == id {
			return &registry[i], true
		}
	}
	return nil, false
}

// All returns every registered profile, in classification order.
func All() []Profile {
	out := make([]Profile, len(registry))
	copy(out, registry)
	return out
}
