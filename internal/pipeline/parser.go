package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// ParseRecord decodes raw model output into a proposed record.
// The output is only ever decoded as JSON. Failures are *ParseError values
// whose Raw field holds raw unchanged.
func ParseRecord(raw string) (domain.ProposedRecord, error) {
	clean := cleanModelJSON(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return domain.ProposedRecord{}, &ParseError{Kind: ErrMalformed, Raw: raw, Err: err}
	}
	if fields == nil {
		return domain.ProposedRecord{}, &ParseError{Kind: ErrMalformed, Raw: raw, Err: fmt.Errorf("top-level value is null")}
	}

	date, err := getStringField(fields, "date", raw)
	if err != nil {
		return domain.ProposedRecord{}, err
	}
	item, err := getStringField(fields, "item", raw)
	if err != nil {
		return domain.ProposedRecord{}, err
	}
	amount, err := getAmountField(fields, "amount", raw)
	if err != nil {
		return domain.ProposedRecord{}, err
	}
	category, err := getStringField(fields, "category", raw)
	if err != nil {
		return domain.ProposedRecord{}, err
	}

	return domain.ProposedRecord{
		Date:     date,
		Item:     item,
		Amount:   amount,
		Category: category,
	}, nil
}

// cleanModelJSON drops Markdown fences and any chatter around the object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "[") {
		return s
	}
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	return s
}

func lookupField(m map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := m[key]
	if !ok || strings.TrimSpace(string(v)) == "null" {
		return nil, false
	}
	return v, true
}

func getStringField(m map[string]json.RawMessage, key, raw string) (string, error) {
	v, ok := lookupField(m, key)
	if !ok {
		return "", &ParseError{Kind: ErrMissingField, Field: key, Raw: raw}
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &ParseError{Kind: ErrMalformed, Field: key, Raw: raw, Err: fmt.Errorf("field %q has type %s, want string", key, jsonKind(v))}
	}

	s = normalizeLabel(s)
	if s == "" {
		return "", &ParseError{Kind: ErrMissingField, Field: key, Raw: raw}
	}
	return s, nil
}

// getAmountField accepts an integral JSON number or a quoted decimal integer.
func getAmountField(m map[string]json.RawMessage, key, raw string) (int64, error) {
	v, ok := lookupField(m, key)
	if !ok {
		return 0, &ParseError{Kind: ErrMissingField, Field: key, Raw: raw}
	}

	invalid := func(err error) error {
		return &ParseError{Kind: ErrInvalidAmount, Field: key, Raw: raw, Err: err}
	}

	var amount int64
	switch jsonKind(v) {
	case "string":
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, invalid(err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, &ParseError{Kind: ErrMissingField, Field: key, Raw: raw}
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, invalid(fmt.Errorf("%q is not a whole number", s))
		}
		amount = n
	case "number":
		var num json.Number
		if err := json.Unmarshal(v, &num); err != nil {
			return 0, invalid(err)
		}
		if n, err := num.Int64(); err == nil {
			amount = n
			break
		}
		f, err := num.Float64()
		if err != nil || math.IsInf(f, 0) {
			return 0, invalid(fmt.Errorf("%s is out of range", num))
		}
		if f != math.Trunc(f) {
			return 0, invalid(fmt.Errorf("%s has a fractional part", num))
		}
		if math.Abs(f) > MaxAmount {
			return 0, invalid(fmt.Errorf("%s exceeds %d", num, int64(MaxAmount)))
		}
		amount = int64(f)
	default:
		return 0, invalid(fmt.Errorf("field %q has type %s, want integer", key, jsonKind(v)))
	}

	if err := validateAmount(amount); err != nil {
		return 0, invalid(err)
	}
	return amount, nil
}

func jsonKind(v json.RawMessage) string {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return "empty"
	}
	switch s[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
