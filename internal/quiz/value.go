package quiz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Value is a polymorphic answer value: a string, an ordered list of
// strings, or a number, depending on the question kind.
type Value struct {
	Text   string
	List   []string
	Number *float64
}

// Empty reports whether the value would leave "next" disabled: empty
// string, empty list, or no number. Any number counts as answered.
func (v Value) Empty() bool {
	return strings.TrimSpace(v.Text) == "" && len(v.List) == 0 && v.Number == nil
}

// Encode stringifies the value for persistence.
func (v Value) Encode() string {
	switch {
	case v.Number != nil:
		b, _ := json.Marshal(*v.Number)
		return string(b)
	case v.List != nil:
		b, _ := json.Marshal(v.List)
		return string(b)
	default:
		b, _ := json.Marshal(v.Text)
		return string(b)
	}
}

// DecodeValue reverses Encode for the given question kind. Undecodable
// stored values come back empty rather than failing; a corrupt answer just
// re-prompts the question.
func DecodeValue(q *Question, stored string) Value {
	switch q.Kind {
	case KindMultipleChoice, KindColorSet:
		var list []string
		if err := json.Unmarshal([]byte(stored), &list); err == nil {
			return Value{List: list}
		}
	case KindNumericScale:
		var n float64
		if err := json.Unmarshal([]byte(stored), &n); err == nil {
			return Value{Number: &n}
		}
	default:
		var s string
		if err := json.Unmarshal([]byte(stored), &s); err == nil {
			return Value{Text: s}
		}
	}
	return Value{}
}

// ParseValue decodes a raw inbound value against the question definition,
// enforcing option membership and the max_selections cap.
func ParseValue(q *Question, raw json.RawMessage) (Value, error) {
	if len(raw) == 0 {
		return Value{}, nil
	}
	switch q.Kind {
	case KindSingleChoice:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, invalidValue(fmt.Sprintf("question %q expects a string", q.ID))
		}
		if s != "" && !hasOption(q, s) {
			return Value{}, invalidValue(fmt.Sprintf("question %q: unknown option", q.ID))
		}
		return Value{Text: s}, nil
	case KindFreeText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, invalidValue(fmt.Sprintf("question %q expects a string", q.ID))
		}
		return Value{Text: strings.TrimSpace(s)}, nil
	case KindNumericScale:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return Value{}, invalidValue(fmt.Sprintf("question %q expects a number", q.ID))
		}
		if q.Max > q.Min && (n < float64(q.Min) || n > float64(q.Max)) {
			return Value{}, invalidValue(fmt.Sprintf("question %q: value out of range", q.ID))
		}
		return Value{Number: &n}, nil
	case KindMultipleChoice, KindColorSet:
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return Value{}, invalidValue(fmt.Sprintf("question %q expects a list", q.ID))
		}
		seen := map[string]struct{}{}
		for _, item := range list {
			if !hasOption(q, item) {
				return Value{}, invalidValue(fmt.Sprintf("question %q: unknown option", q.ID))
			}
			if _, dup := seen[item]; dup {
				return Value{}, invalidValue(fmt.Sprintf("question %q: duplicate option", q.ID))
			}
			seen[item] = struct{}{}
		}
		if q.MaxSelections > 0 && len(list) > q.MaxSelections {
			return Value{}, tooManySelections(q.MaxSelections)
		}
		return Value{List: list}, nil
	}
	return Value{}, invalidValue(fmt.Sprintf("question %q: unsupported kind", q.ID))
}

func hasOption(q *Question, label string) bool {
	for _, o := range q.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}
