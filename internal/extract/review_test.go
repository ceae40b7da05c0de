package extract

import (
	"reflect"
	"testing"

	"github.com/reviewscope/crawler/internal/platform"
)

func naverProfile(t *testing.T) *platform.Profile {
	t.Helper()
	p, ok := platform.Lookup(platform.Naver)
	if !ok {
		t.Fatal("naver profile not registered")
	}
	return p
}

func parse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := ParseDocument(src)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	return d
}

func TestReviewsFullRecord(t *testing.T) {
	p := naverProfile(t)
	d := parse(t, `<html><body><ul class="RR2FSL9wTc">
		<li>
			<div class="Db9Dtnf7gY">
				<strong class="MX91DFZo2F">buyer123</strong>
				<span class="MX91DFZo2F">24.01.15.</span>
			</div>
			<em class="n6zq2yy0KA">평점 4</em>
			<div class="HakaEZ240l">배송이 빨라요</div>
			<div class="v9RFkJOz1K"><img src="https://img.example/a.jpg"></div>
		</li>
	</ul></body></html>`)

	records := Reviews(d, p)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.Author != "buyer123" {
		t.Errorf("Author = %q, want %q", rec.Author, "buyer123")
	}
	if rec.Rating != 4 {
		t.Errorf("Rating = %d, want 4", rec.Rating)
	}
	if rec.Content != "배송이 빨라요" {
		t.Errorf("Content = %q", rec.Content)
	}
	if rec.Date == nil || *rec.Date != "24-01-15" {
		t.Errorf("Date = %v, want 24-01-15", rec.Date)
	}
	if !reflect.DeepEqual(rec.Images, []string{"https://img.example/a.jpg"}) {
		t.Errorf("Images = %v", rec.Images)
	}
	if rec.Platform != "naver" {
		t.Errorf("Platform = %q", rec.Platform)
	}
}

func TestReviewsMinimalNode(t *testing.T) {
	// Only content present: every other field takes its default.
	p := naverProfile(t)
	d := parse(t, `<ul class="RR2FSL9wTc"><li><div class="HakaEZ240l">좋아요</div></li></ul>`)

	records := Reviews(d, p)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.Content != "좋아요" {
		t.Errorf("Content = %q, want 좋아요", rec.Content)
	}
	if rec.Author != "Unknown" {
		t.Errorf("Author = %q, want Unknown", rec.Author)
	}
	if rec.Rating != 5 {
		t.Errorf("Rating = %d, want default 5", rec.Rating)
	}
	if rec.Date != nil {
		t.Errorf("Date = %v, want nil", rec.Date)
	}
	if len(rec.Images) != 0 {
		t.Errorf("Images = %v, want empty", rec.Images)
	}
}

func TestReviewsEmptyContentDropped(t *testing.T) {
	p := naverProfile(t)
	d := parse(t, `<ul class="RR2FSL9wTc">
		<li><div class="HakaEZ240l">   </div></li>
		<li><div class="HakaEZ240l"></div></li>
		<li><div class="HakaEZ240l">실제 리뷰</div></li>
	</ul>`)

	records := Reviews(d, p)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (whitespace-only content must be dropped)", len(records))
	}
	if records[0].Content != "실제 리뷰" {
		t.Errorf("Content = %q", records[0].Content)
	}
}

func TestReviewRating(t *testing.T) {
	tests := []struct {
		name   string
		rating string
		want   int
	}{
		{"plain digit", `<em class="n6zq2yy0KA">5</em>`, 5},
		{"digit with label text", `<em class="n6zq2yy0KA">평점 3</em>`, 3},
		{"no digits defaults to 5", `<em class="n6zq2yy0KA">별점</em>`, 5},
		{"missing element defaults to 5", ``, 5},
		{"zero clamps up to 1", `<em class="n6zq2yy0KA">0</em>`, 1},
		{"out of range clamps to 5", `<em class="n6zq2yy0KA">45</em>`, 5},
	}

	p := naverProfile(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parse(t, `<ul class="RR2FSL9wTc"><li>`+tt.rating+`<div class="HakaEZ240l">ok</div></li></ul>`)
			records := Reviews(d, p)
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			if records[0].Rating != tt.want {
				t.Errorf("Rating = %d, want %d", records[0].Rating, tt.want)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"24.01.15.", "24-01-15"},
		{"24.01.15", "24-01-15"},
		{"  24.12.01.  ", "24-12-01"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeDate(tt.raw); got != tt.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestReviewImagesTiers(t *testing.T) {
	tests := []struct {
		name string
		node string
		want []string
	}{
		{
			name: "structured payload on inner element wins",
			node: `<li data-shp-contents='{"imgUrl":"https://img.example/outer.jpg"}'>
				<span data-shp-contents='[{"key":"imgUrl","value":"https://img.example/inner.jpg"}]'></span>
				<div class="HakaEZ240l">ok</div>
				<div class="v9RFkJOz1K"><img src="https://img.example/plain.jpg"></div>
			</li>`,
			want: []string{"https://img.example/inner.jpg"},
		},
		{
			name: "payload on the node itself is the second tier",
			node: `<li data-shp-contents='{"imgUrl":"https://img.example/outer.jpg"}'>
				<div class="HakaEZ240l">ok</div>
			</li>`,
			want: []string{"https://img.example/outer.jpg"},
		},
		{
			name: "plain img src is the last tier",
			node: `<li>
				<div class="HakaEZ240l">ok</div>
				<div class="v9RFkJOz1K"><img src="https://img.example/plain.jpg"><img src="https://img.example/plain.jpg"></div>
			</li>`,
			want: []string{"https://img.example/plain.jpg"},
		},
		{
			name: "payload array keeps every imgUrl entry",
			node: `<li>
				<span data-shp-contents='[{"key":"imgUrl","value":"https://a"},{"key":"other","value":"x"},{"key":"imgUrl","value":"https://b"}]'></span>
				<div class="HakaEZ240l">ok</div>
			</li>`,
			want: []string{"https://a", "https://b"},
		},
		{
			name: "malformed payload yields no images, keeps the review",
			node: `<li>
				<span data-shp-contents='not json but mentions imgUrl'></span>
				<div class="HakaEZ240l">ok</div>
			</li>`,
			want: []string{},
		},
	}

	p := naverProfile(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parse(t, `<ul class="RR2FSL9wTc">`+tt.node+`</ul>`)
			records := Reviews(d, p)
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			got := records[0].Images
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Images = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPayloadImageURLs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"entry array", `[{"key":"imgUrl","value":"https://a"}]`, []string{"https://a"}},
		{"flat object string", `{"imgUrl":"https://b"}`, []string{"https://b"}},
		{"flat object array", `{"imgUrl":["https://c","https://d"]}`, []string{"https://c", "https://d"}},
		{"empty values dropped", `[{"key":"imgUrl","value":""}]`, nil},
		{"garbage", `{{{`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payloadImageURLs(tt.raw, "imgUrl")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("payloadImageURLs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
