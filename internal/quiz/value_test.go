package quiz

import (
	"encoding/json"
	"testing"
)

func TestParseValueKinds(t *testing.T) {
	cat := mustCatalog(t)

	single := cat.At(cat.Index("gender"))
	v, err := ParseValue(single, json.RawMessage(`"Maschio"`))
	if err != nil || v.Text != "Maschio" {
		t.Fatalf("single choice: %v %+v", err, v)
	}
	if _, err := ParseValue(single, json.RawMessage(`"Altro"`)); err == nil {
		t.Fatalf("unknown option should be rejected")
	}

	free := cat.At(cat.Index("biggest_obstacle"))
	v, err = ParseValue(free, json.RawMessage(`"  i pensieri  "`))
	if err != nil || v.Text != "i pensieri" {
		t.Fatalf("free text should be trimmed: %v %+v", err, v)
	}

	num := cat.At(cat.Index("stress_level"))
	v, err = ParseValue(num, json.RawMessage(`7`))
	if err != nil || v.Number == nil || *v.Number != 7 {
		t.Fatalf("numeric scale: %v %+v", err, v)
	}
	if _, err := ParseValue(num, json.RawMessage(`42`)); err == nil {
		t.Fatalf("out-of-range number should be rejected")
	}

	multi := cat.At(cat.Index("relaxation_methods"))
	if _, err := ParseValue(multi, json.RawMessage(`["Leggo","Leggo"]`)); err == nil {
		t.Fatalf("duplicate selections should be rejected")
	}
}

func TestValueEmpty(t *testing.T) {
	if !(Value{}).Empty() {
		t.Fatalf("zero value should be empty")
	}
	if !(Value{Text: "   "}).Empty() {
		t.Fatalf("whitespace string should be empty")
	}
	zero := 0.0
	if (Value{Number: &zero}).Empty() {
		t.Fatalf("any number counts as answered, including zero")
	}
	if (Value{List: []string{"Blu"}}).Empty() {
		t.Fatalf("non-empty list should count as answered")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cat := mustCatalog(t)

	multi := cat.At(cat.Index("bedroom_factors"))
	v, err := ParseValue(multi, json.RawMessage(`["Rumore","Luce"]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	back := DecodeValue(multi, v.Encode())
	if len(back.List) != 2 || back.List[0] != "Rumore" || back.List[1] != "Luce" {
		t.Fatalf("list order must survive the round trip: %+v", back)
	}

	num := cat.At(cat.Index("stress_level"))
	v, _ = ParseValue(num, json.RawMessage(`4`))
	back = DecodeValue(num, v.Encode())
	if back.Number == nil || *back.Number != 4 {
		t.Fatalf("number round trip failed: %+v", back)
	}

	if got := DecodeValue(num, "not-json"); !got.Empty() {
		t.Fatalf("corrupt stored value should come back empty, got %+v", got)
	}
}
