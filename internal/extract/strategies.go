package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"article_spider/internal/models"
)

// Fields resolved through strategy lists.
const (
	FieldTitle         = "title"
	FieldThumbnail     = "thumbnail"
	FieldAuthor        = "author"
	FieldCategory      = "category"
	FieldSubCategory   = "sub_category"
	FieldSummary       = "summary"
	FieldPublishedDate = "published_date"
)

// Strategy derives one field from a page. It reports false when its target
// is missing; it never fails.
type Strategy func(p *Page) (string, bool)

var registry = map[string]map[string]Strategy{
	FieldTitle: {
		"h1":                h1Title,
		"og_title":          metaProperty("og:title"),
		"readability_title": readabilityTitle,
	},
	FieldThumbnail: {
		"og_image": metaProperty("og:image"),
	},
	FieldAuthor: {
		"byline_link":        bylineLink,
		"link_before_time":   linkBeforeTime,
		"readability_byline": readabilityByline,
	},
	FieldCategory: {
		"meta_section": metaProperty("article:section"),
		"active_nav":   activeNav,
	},
	FieldSubCategory: {
		"meta_tag": firstArticleTag,
	},
	FieldSummary: {
		"lead_element":          leadElement,
		"paragraph_after_title": paragraphAfterTitle,
		"readability_excerpt":   readabilityExcerpt,
	},
	FieldPublishedDate: {
		"time_datetime": timeDatetime,
	},
}

var DefaultPriorities = map[string][]string{
	FieldTitle:         {"h1"},
	FieldThumbnail:     {"og_image"},
	FieldAuthor:        {"byline_link", "link_before_time"},
	FieldCategory:      {"meta_section", "active_nav"},
	FieldSubCategory:   {"meta_tag"},
	FieldSummary:       {"lead_element", "paragraph_after_title"},
	FieldPublishedDate: {"time_datetime"},
}

// Known reports whether name is a registered strategy for field.
func Known(field, name string) bool {
	_, ok := registry[field][name]
	return ok
}

func h1Title(p *Page) (string, bool) {
	return selectionText(p.Doc.Find("h1").First())
}

func metaProperty(property string) Strategy {
	return func(p *Page) (string, bool) {
		return attrText(p.Doc.Find(`meta[property="`+property+`"]`).First(), "content")
	}
}

func bylineLink(p *Page) (string, bool) {
	span := p.Doc.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, class := range strings.Fields(s.AttrOr("class", "")) {
			if strings.Contains(class, "author") || strings.Contains(class, "vcard") {
				return true
			}
		}
		return false
	}).First()
	if span.Length() == 0 {
		return "", false
	}
	return selectionText(span.Find("a").First())
}

// linkBeforeTime takes the last link that precedes the first time element in
// document order.
func linkBeforeTime(p *Page) (string, bool) {
	var last *goquery.Selection
	sawTime := false

	p.Doc.Find("a, time").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "time" {
			sawTime = true
			return false
		}
		last = s
		return true
	})

	if !sawTime || last == nil {
		return "", false
	}
	return selectionText(last)
}

func activeNav(p *Page) (string, bool) {
	return selectionText(p.Doc.Find("li.current-cat a, a.current-category").First())
}

func firstArticleTag(p *Page) (string, bool) {
	return attrText(p.Doc.Find(`meta[property="article:tag"][content]`).First(), "content")
}

func leadElement(p *Page) (string, bool) {
	for _, sel := range []string{"p.lead", "p.entry-summary", "div.excerpt"} {
		if text, ok := selectionText(p.Doc.Find(sel).First()); ok {
			return text, true
		}
	}
	return "", false
}

func paragraphAfterTitle(p *Page) (string, bool) {
	var para *goquery.Selection
	sawTitle := false

	p.Doc.Find("h1, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		switch goquery.NodeName(s) {
		case "h1":
			sawTitle = true
		case "p":
			if sawTitle {
				para = s
				return false
			}
		}
		return true
	})

	if para == nil {
		return "", false
	}
	return selectionText(para)
}

func timeDatetime(p *Page) (string, bool) {
	dt, ok := attrText(p.Doc.Find("time").First(), "datetime")
	if !ok || len(dt) < len(models.DateLayout) {
		return "", false
	}
	day := dt[:len(models.DateLayout)]
	if _, err := time.Parse(models.DateLayout, day); err != nil {
		return "", false
	}
	return day, true
}

func readabilityTitle(p *Page) (string, bool) {
	if a, ok := p.Readable(); ok {
		return nonEmpty(a.Title)
	}
	return "", false
}

func readabilityByline(p *Page) (string, bool) {
	if a, ok := p.Readable(); ok {
		return nonEmpty(a.Byline)
	}
	return "", false
}

func readabilityExcerpt(p *Page) (string, bool) {
	if a, ok := p.Readable(); ok {
		return nonEmpty(a.Excerpt)
	}
	return "", false
}
