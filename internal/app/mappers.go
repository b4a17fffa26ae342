package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"listings_portal/internal/domain"
)

const (
	defaultPrice  = "0|BRL"
	priceSep      = "|"
	machineURLKey = "urlMachine"

	// bounds on a parsed amount; StringFixed expands the exponent into digits
	maxPriceExp = 30
)

var maxPrice = decimal.New(1, 15)

// FieldMapper turns raw CRM items into listings. It holds only the immutable
// field layout and code maps, so one instance is shared by every request.
type FieldMapper struct {
	fields   domain.Fields
	types    domain.CodeMap
	statuses domain.CodeMap
}

func NewFieldMapper(layout domain.FieldLayout) *FieldMapper {
	return &FieldMapper{fields: layout.Fields, types: layout.Types, statuses: layout.Statuses}
}

// Normalize maps one raw item. An empty item yields (nil, nil); the only
// error is *domain.MalformedPriceError.
func (m *FieldMapper) Normalize(raw domain.RawRecord) (*domain.Listing, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	price, err := formatPrice(rawPrice(raw[m.fields.Price]))
	if err != nil {
		return nil, err
	}

	typeCode := codeString(raw[m.fields.Type])
	statusCode := codeString(raw[m.fields.Status])
	id, _ := resolveID(raw)

	return &domain.Listing{
		ID:          id,
		Title:       optString(raw["title"]),
		Price:       price,
		Description: textOr(raw[m.fields.Description]),
		Type:        m.types.Resolve(typeCode),
		Status:      m.statuses.Resolve(statusCode),
		Area:        valueOr(raw[m.fields.Area]),
		Address:     valueOr(raw[m.fields.Address]),
		Photos:      photoURLs(raw[m.fields.Photos]),
	}, nil
}

/********** identifier **********/

type idSource int

const (
	idMissing idSource = iota
	idLower            // "id", as crm.item.* returns it
	idUpper            // "ID", as the legacy crm.* methods return it
)

// resolveID prefers a non-empty "id" and falls back to "ID".
func resolveID(raw domain.RawRecord) (*string, idSource) {
	if s, ok := scalarString(raw["id"]); ok && s != "" && s != "0" {
		return &s, idLower
	}
	if s, ok := scalarString(raw["ID"]); ok {
		return &s, idUpper
	}
	return nil, idMissing
}

/********** price **********/

func rawPrice(v any) string {
	s, ok := scalarString(v)
	if !ok || strings.TrimSpace(s) == "" {
		return defaultPrice
	}
	return s
}

// formatPrice reads the amount of "<amount>|<currency>" and renders it with
// period thousands and comma decimals: 1234567.5 -> 1.234.567,50.
func formatPrice(raw string) (string, error) {
	amount, _, _ := strings.Cut(raw, priceSep)
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", &domain.MalformedPriceError{Raw: raw, Err: err}
	}
	if e := d.Exponent(); e > maxPriceExp || e < -maxPriceExp {
		return "", &domain.MalformedPriceError{Raw: raw, Err: fmt.Errorf("exponent %d out of range", e)}
	}
	if d.Abs().GreaterThan(maxPrice) {
		return "", &domain.MalformedPriceError{Raw: raw, Err: fmt.Errorf("amount exceeds %s", maxPrice)}
	}
	return groupBRL(d.RoundBank(2).StringFixed(2)), nil
}

// groupBRL rewrites a plain "-1234.50" into "-1.234,50".
func groupBRL(fixed string) string {
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

/********** photos **********/

// photoURLs keeps one entry per raw photo, "" when it has no machine URL.
func photoURLs(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			out = append(out, machineURL(it))
		}
		return out
	case map[string]any:
		// single-file fields come back as one object
		if len(t) == 0 {
			return []string{}
		}
		return []string{machineURL(t)}
	}
	return []string{}
}

func machineURL(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[machineURLKey].(string)
	return s
}

/********** tiny helpers **********/

// scalarString renders a decoded JSON value the way it would print; false for nil.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// codeString is the lookup key for a code field; missing codes become "".
func codeString(v any) string {
	s, _ := scalarString(v)
	return s
}

func optString(v any) *string {
	if s, ok := scalarString(v); ok {
		return &s
	}
	return nil
}

func textOr(v any) string {
	if s, ok := scalarString(v); ok {
		return s
	}
	return domain.NotInformed
}

func valueOr(v any) any {
	if v == nil {
		return domain.NotInformed
	}
	return v
}
