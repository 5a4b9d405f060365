package adapters

import "time"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Mon, 02 Jan 2006 15:04:05 -0700",
}

// parseLooseDate tries a handful of common back-end date formats and
// returns the zero time if none match, rather than erroring the whole
// result out over an unparsable timestamp.
func parseLooseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
