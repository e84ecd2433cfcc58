package utils

import (
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 10000
	DateLayout      = "2006-01-02"
)

// ParseFloat converts a string to a float64, returning 0 for an empty string
func ParseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ParsePaging reads page and limit query values, clamping them to sane bounds.
func ParsePaging(pageStr, limitStr string) (page, limit int64) {
	page, _ = strconv.ParseInt(pageStr, 10, 64)
	limit, _ = strconv.ParseInt(limitStr, 10, 64)
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// ParseObjectIDs converts hex ids, failing on the first invalid one.
func ParseObjectIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseDateRange parses YYYY-MM-DD bounds. Missing bounds default to the last
// 30 days ending today. The returned end is exclusive.
func ParseDateRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -30)

	if fromStr != "" {
		t, err := time.ParseInLocation(DateLayout, fromStr, now.Location())
		if err != nil {
			return start, end, err
		}
		start = t
	}
	if toStr != "" {
		t, err := time.ParseInLocation(DateLayout, toStr, now.Location())
		if err != nil {
			return start, end, err
		}
		end = t.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// Round2 rounds an amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
