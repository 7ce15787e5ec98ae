package extract

import (
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"article_spider/internal/models"
)

// Extractor resolves every field of a page through its ordered strategies.
type Extractor struct {
	priorities     map[string][]Strategy
	imagesSelector string
}

// NewExtractor builds an extractor from strategy names per field. Fields left
// out of priorities use DefaultPriorities.
func NewExtractor(priorities map[string][]string, imagesSelector string) (*Extractor, error) {
	e := &Extractor{
		priorities:     make(map[string][]Strategy, len(DefaultPriorities)),
		imagesSelector: imagesSelector,
	}
	if e.imagesSelector == "" {
		e.imagesSelector = "article img"
	}

	for field, defaults := range DefaultPriorities {
		names, ok := priorities[field]
		if !ok {
			names = defaults
		}
		for _, name := range names {
			s, ok := registry[field][name]
			if !ok {
				return nil, fmt.Errorf("field %s: unknown extraction strategy %q", field, name)
			}
			e.priorities[field] = append(e.priorities[field], s)
		}
	}
	for field := range priorities {
		if _, ok := registry[field]; !ok {
			return nil, fmt.Errorf("unknown extraction field %q", field)
		}
	}

	return e, nil
}

// Field tries the field's strategies in order and returns the first hit.
func (e *Extractor) Field(p *Page, field string) *string {
	for _, s := range e.priorities[field] {
		if v, ok := s(p); ok {
			return &v
		}
	}
	return nil
}

// Images lists the content images in document order.
func (e *Extractor) Images(p *Page) models.Images {
	images := models.Images{}
	p.Doc.Find(e.imagesSelector).Each(func(_ int, s *goquery.Selection) {
		src, ok := attrText(s, "src")
		if !ok {
			src, _ = attrText(s, "data-src")
		}
		desc, ok := attrText(s, "alt")
		if !ok {
			desc, _ = attrText(s, "title")
		}
		images = append(images, models.Image{URL: models.Str(src), Description: desc})
	})
	return images
}

// Assembler turns one fetched article page into a record.
type Assembler struct {
	extractor *Extractor
	now       func() time.Time
}

func NewAssembler(extractor *Extractor, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{extractor: extractor, now: now}
}

func (a *Assembler) Assemble(pageURL, rawHTML string) (*models.ArticleRecord, error) {
	page, err := NewPage(pageURL, rawHTML)
	if err != nil {
		return nil, err
	}

	ex := a.extractor
	rec := &models.ArticleRecord{
		URL:           pageURL,
		Title:         ex.Field(page, FieldTitle),
		ThumbnailURL:  ex.Field(page, FieldThumbnail),
		Author:        ex.Field(page, FieldAuthor),
		Category:      ex.Field(page, FieldCategory),
		SubCategory:   ex.Field(page, FieldSubCategory),
		Summary:       ex.Field(page, FieldSummary),
		PublishedDate: ex.Field(page, FieldPublishedDate),
		Images:        ex.Images(page),
		ScrapedAt:     a.now().UTC(),
	}
	if rec.SubCategory == nil && rec.Category != nil {
		sub := *rec.Category
		rec.SubCategory = &sub
	}

	return rec, nil
}
