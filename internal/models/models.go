package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Stored field names, shared by the Mongo documents and the SQLite columns.
const (
	FieldURL           = "url"
	FieldTitle         = "title"
	FieldThumbnailURL  = "thumbnail_url"
	FieldAuthor        = "author"
	FieldCategory      = "category"
	FieldSubCategory   = "sub_category"
	FieldSummary       = "summary"
	FieldPublishedDate = "published_date"
	FieldImages        = "images"
	FieldScrapedAt     = "scraped_at"
)

// DateLayout is the calendar-day format of PublishedDate and of date filters.
const DateLayout = "2006-01-02"

// ArticleRecord is one scraped article, keyed by URL. Optional fields are nil
// when the page did not yield them and are left out of stored documents.
type ArticleRecord struct {
	URL           string    `json:"url" bson:"url"`
	Title         *string   `json:"title" bson:"title,omitempty"`
	ThumbnailURL  *string   `json:"thumbnailUrl" bson:"thumbnail_url,omitempty"`
	Author        *string   `json:"author" bson:"author,omitempty"`
	Category      *string   `json:"category" bson:"category,omitempty"`
	SubCategory   *string   `json:"subCategory" bson:"sub_category,omitempty"`
	Summary       *string   `json:"summary" bson:"summary,omitempty"`
	PublishedDate *string   `json:"publishedDate" bson:"published_date,omitempty"`
	Images        Images    `json:"images" bson:"images"`
	ScrapedAt     time.Time `json:"scrapedAt" bson:"scraped_at"`
}

type Image struct {
	URL         *string `json:"url" bson:"url"`
	Description string  `json:"description" bson:"description"`
}

// Images is an ordered mapping from 1-based position to image. It is encoded
// as an object keyed "1".."n" in document order.
type Images []Image

func (im Images) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, img := range im {
		if i > 0 {
			buf.WriteByte(',')
		}
		v, err := json.Marshal(img)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:", strconv.Itoa(i+1))
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (im *Images) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*im = nil
		return nil
	}
	var byKey map[string]Image
	if err := json.Unmarshal(data, &byKey); err != nil {
		return err
	}
	keyed := make(map[int]Image, len(byKey))
	for k, img := range byKey {
		pos, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("image key %q is not a position", k)
		}
		keyed[pos] = img
	}
	*im = fromPositions(keyed)
	return nil
}

func (im Images) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d := make(bson.D, 0, len(im))
	for i, img := range im {
		d = append(d, bson.E{Key: strconv.Itoa(i + 1), Value: img})
	}
	return bson.MarshalValue(d)
}

func (im *Images) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*im = nil
		return nil
	}
	if t != bsontype.EmbeddedDocument {
		return fmt.Errorf("images: unexpected bson type %s", t)
	}
	elems, err := bson.Raw(data).Elements()
	if err != nil {
		return err
	}
	keyed := make(map[int]Image, len(elems))
	for _, e := range elems {
		pos, err := strconv.Atoi(e.Key())
		if err != nil {
			return fmt.Errorf("image key %q is not a position", e.Key())
		}
		var img Image
		if err := e.Value().Unmarshal(&img); err != nil {
			return err
		}
		keyed[pos] = img
	}
	*im = fromPositions(keyed)
	return nil
}

func fromPositions(keyed map[int]Image) Images {
	positions := make([]int, 0, len(keyed))
	for pos := range keyed {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	out := make(Images, 0, len(positions))
	for _, pos := range positions {
		out = append(out, keyed[pos])
	}
	return out
}

// Filter is a conjunction of per-field constraints. Substring fields match
// case-insensitively and literally; date bounds are inclusive.
type Filter struct {
	DateStart   string
	DateEnd     string
	Author      string
	Category    string
	SubCategory string
	Title       string

	// Equals restricts stored field names to exact values.
	Equals map[string]string
}

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
