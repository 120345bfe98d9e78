package contenthub

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortLanguage is the collation used for name ordering.
var SortLanguage = language.English

// displayName is the name used for ordering: name, else title.
func displayName(item Fields) string {
	if n := item.String(FieldName); n != "" {
		return n
	}
	return item.String(FieldTitle)
}

// SortFeaturedByName orders items featured first, then by name under locale
// collation. Items without a name sort first within their group; address
// breaks remaining ties.
func SortFeaturedByName(items []Fields) {
	// Collators keep internal buffers, so each sort gets its own.
	col := collate.New(SortLanguage, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if fa, fb := a.Bool(FieldFeatured), b.Bool(FieldFeatured); fa != fb {
			return fa
		}
		if c := col.CompareString(displayName(a), displayName(b)); c != 0 {
			return c < 0
		}
		return NormalizeAddress(a.String(FieldAddress)) < NormalizeAddress(b.String(FieldAddress))
	})
}

// SortByPublishedDesc orders items newest first. Items without a readable
// publish date count as the Unix epoch and sort last.
func SortByPublishedDesc(items []Fields) {
	sort.SliceStable(items, func(i, j int) bool {
		return PublishedAt(items[i]).After(PublishedAt(items[j]))
	})
}

// PublishedAt reads the publish date of an item. Numbers are Unix
// milliseconds; strings may be RFC 3339, a plain date or a millisecond count.
func PublishedAt(item Fields) time.Time {
	return parseTime(item[FieldPublishedAt])
}

func parseTime(v any) time.Time {
	epoch := time.Unix(0, 0).UTC()
	switch t := v.(type) {
	case time.Time:
		return t
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	case int64:
		return time.UnixMilli(t).UTC()
	case int:
		return time.UnixMilli(int64(t)).UTC()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return epoch
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
	}
	return epoch
}
