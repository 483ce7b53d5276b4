// Package normalize converts loosely typed ERP field values into domain values.
// Every function is total: malformed input degrades to a documented default.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DateLayouts are tried in order by ParseDate. The ERP sends month/day/year.
var DateLayouts = []string{
	"1/2/2006",
	"1/2/2006 15:04:05",
}

var falsy = map[string]struct{}{
	"":      {},
	"0":     {},
	"false": {},
	"none":  {},
	"null":  {},
}

// Stringify renders a decoded JSON value the way the ERP would have sent it.
func Stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// FirstNonEmpty returns the first candidate key whose value stringifies to
// something non-empty, along with that key.
func FirstNonEmpty(rec map[string]any, keys ...string) (string, string) {
	for _, k := range keys {
		if s := Stringify(rec[k]); s != "" {
			return s, k
		}
	}
	return "", ""
}

// ParseDate returns nil when no layout matches.
func ParseDate(raw any) *time.Time {
	s := Stringify(raw)
	if s == "" {
		return nil
	}
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// ParseDecimal returns def when raw is empty or unparsable.
func ParseDecimal(raw any, def decimal.NullDecimal) decimal.NullDecimal {
	s := Stringify(raw)
	if s == "" {
		return def
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	return decimal.NewNullDecimal(d)
}

// DecimalOr is ParseDecimal for non-nullable columns.
func DecimalOr(raw any, def decimal.Decimal) decimal.Decimal {
	return ParseDecimal(raw, decimal.NewNullDecimal(def)).Decimal
}

// ParseBool is permissive: anything outside the falsy set is true.
func ParseBool(raw any) bool {
	_, ok := falsy[strings.ToLower(Stringify(raw))]
	return !ok
}

// MapCode looks up the stringified key, falling back to def.
func MapCode(table map[string]string, key any, def string) string {
	if v, ok := table[Stringify(key)]; ok {
		return v
	}
	return def
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(raw any) string {
	s := Stringify(raw)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ParseID parses a positive integer identifier. Zero, negative and
// non-integer values are reported as absent.
func ParseID(raw any) (int64, bool) {
	s := Stringify(raw)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases, strips accents and collapses everything else to dashes.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}

// PlaceholderEmail builds a deterministic non-routable address for parties
// the ERP sent without an email.
func PlaceholderEmail(name string, externalID int64) string {
	base := Slug(name)
	if base == "" {
		base = "sem-nome"
	}
	return fmt.Sprintf("noemail-%s-%d@invalid.local", base, externalID)
}

// IsPlaceholderEmail reports whether email was produced by PlaceholderEmail.
func IsPlaceholderEmail(email string) bool {
	return strings.HasPrefix(email, "noemail-") && strings.HasSuffix(email, "@invalid.local")
}
