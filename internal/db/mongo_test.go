package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"article_spider/internal/models"
)

func TestBuildFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(models.Filter{}))
}

func TestBuildFilter_DateRange(t *testing.T) {
	got := buildFilter(models.Filter{DateStart: "2024-01-01", DateEnd: "2024-01-31"})

	assert.Equal(t, bson.M{
		"published_date": bson.M{"$gte": "2024-01-01", "$lte": "2024-01-31"},
	}, got)
}

func TestBuildFilter_SubstringIsEscaped(t *testing.T) {
	got := buildFilter(models.Filter{Title: "c++ (beta)"})

	assert.Equal(t, bson.M{
		"title": bson.M{"$regex": `c\+\+ \(beta\)`, "$options": "i"},
	}, got)
}

func TestBuildFilter_Conjunction(t *testing.T) {
	got := buildFilter(models.Filter{
		Author:   "jane",
		Category: "mark",
		Equals:   map[string]string{"category": "Marketing"},
	})

	assert.Equal(t, bson.M{"$and": []bson.M{
		{"author": bson.M{"$regex": "jane", "$options": "i"}},
		{"category": bson.M{"$regex": "mark", "$options": "i"}},
		{"category": "Marketing"},
	}}, got)
}
