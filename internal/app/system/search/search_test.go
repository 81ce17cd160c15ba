package search

import (
	"regexp"
	"testing"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPrefix_EmptyQueryLeavesFilter(t *testing.T) {
	f := Prefix(bson.M{"school_id": 1}, "title_ci", "   ")
	if len(f) != 1 {
		t.Fatalf("expected filter untouched, got %v", f)
	}
}

func TestPrefix_NilFilter(t *testing.T) {
	f := Prefix(nil, "title_ci", "abc")
	if _, ok := f["title_ci"]; !ok {
		t.Fatalf("expected title_ci key, got %v", f)
	}
}

func TestPrefix_QuotesMeta(t *testing.T) {
	f := Prefix(bson.M{}, "subject_ci", "C++ (adv)")
	re, ok := f["subject_ci"].(primitive.Regex)
	if !ok {
		t.Fatalf("expected primitive.Regex, got %T", f["subject_ci"])
	}
	want := "^" + regexp.QuoteMeta(text.Fold("C++ (adv)"))
	if re.Pattern != want {
		t.Errorf("pattern = %q, want %q", re.Pattern, want)
	}
}
