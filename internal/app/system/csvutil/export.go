// internal/app/system/csvutil/export.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Filename builds "<base>_YYYYMMDD_HHMMSS.csv" in UTC.
func Filename(base string, now time.Time) string {
	return base + "_" + now.UTC().Format("20060102_150405") + ".csv"
}

// NewExport sets the attachment headers on w and returns a CRLF writer.
// Callers must Flush it and check Error.
func NewExport(w http.ResponseWriter, filename string) *csv.Writer {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
	w.Header().Set("Cache-Control", "no-store")

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw
}

// Cell neutralises values a spreadsheet would evaluate as a formula.
func Cell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// Cells applies Cell to every value.
func Cells(values ...string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Cell(v)
	}
	return out
}

// Int formats n for a cell. Write it without Cell so negatives stay numeric.
func Int(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Date formats t as YYYY-MM-DD, or "" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// Join flattens a list into one cell.
func Join(values []string) string {
	return strings.Join(values, "; ")
}
