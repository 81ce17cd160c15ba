// internal/app/system/search/search.go
package search

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prefix returns a filter matching documents whose folded field starts
// with the folded query. An empty query matches everything.
//
// field must be a *_ci field holding text.Fold output so the match can use
// the field's index.
func Prefix(filter bson.M, field, q string) bson.M {
	if filter == nil {
		filter = bson.M{}
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return filter
	}
	filter[field] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(text.Fold(q))}
	return filter
}
