package shiftextract

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidHours  = errors.New("hours value is not a number")
	ErrNegativeHours = errors.New("hours value is negative")
)

var (
	clockPattern     = regexp.MustCompile(`^(\d{1,3}):([0-5]\d)(?::([0-5]\d))?$`)
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	unitSuffix       = regexp.MustCompile(`(?i)\s*(h|hr|hrs|hour|hours)\.?$`)
	sixty            = decimal.NewFromInt(60)
	thirtySixHundred = decimal.NewFromInt(3600)
)

// ParseHours accepts "7.5", "7,5", "1,234.5", "7:30" and "8 hrs" and
// returns the value rounded to two decimal places.
func ParseHours(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = unitSuffix.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return decimal.Zero, ErrInvalidHours
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		h, _ := decimal.NewFromString(m[1])
		mins, _ := decimal.NewFromString(m[2])
		v := h.Add(mins.Div(sixty))
		if m[3] != "" {
			sec, _ := decimal.NewFromString(m[3])
			v = v.Add(sec.Div(thirtySixHundred))
		}
		return v.Round(2), nil
	}

	v, err := decimal.NewFromString(normalizeNumber(s))
	if err != nil {
		return decimal.Zero, ErrInvalidHours
	}
	if v.IsNegative() {
		return decimal.Zero, ErrNegativeHours
	}
	return v.Round(2), nil
}

// normalizeNumber resolves comma/dot ambiguity: the right-most separator is
// the decimal point unless the commas group thousands.
func normalizeNumber(s string) string {
	if thousandsPattern.MatchString(s) {
		return strings.ReplaceAll(s, ",", "")
	}
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-06",
	"1-2-06",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// parseDate returns nil for an empty or unrecognized cell; the date is optional.
func parseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// categorize prefers the explicit category cell and falls back to markers
// in the job name or notes.
func categorize(categoryCell, jobName, notes string) Category {
	if categoryCell != "" {
		if c, ok := categoryFromTokens(markerTokens(categoryCell)); ok {
			return c
		}
		return CategoryRegular
	}
	if c, ok := categoryFromTokens(markerTokens(jobName + " " + notes)); ok {
		return c
	}
	return CategoryRegular
}

func categoryFromTokens(tokens []string) (Category, bool) {
	has := func(want ...string) bool {
		for _, t := range tokens {
			for _, w := range want {
				if t == w {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("qc", "quality"):
		return CategoryQC, true
	case has("2ot", "dt", "double", "doubletime"):
		return CategoryOT2, true
	case has("ot", "overtime"):
		return CategoryOT, true
	case has("regular", "reg", "standard"):
		return CategoryRegular, true
	}
	return "", false
}

func markerTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
