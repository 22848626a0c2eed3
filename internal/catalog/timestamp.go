package catalog

import (
	"strings"
	"time"
)

// TimestampLayout is the canonical form stored for created_at/updated_at.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	TimestampLayout,
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTimestamp reads a remote timestamp and converts it to UTC. Values that
// cannot be read fall back to the Unix epoch.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}

// NormalizeTimestamp renders s as YYYY-MM-DD HH:MM:SS in UTC.
func NormalizeTimestamp(s string) string {
	return ParseTimestamp(s).Format(TimestampLayout)
}
