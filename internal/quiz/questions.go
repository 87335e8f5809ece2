package quiz

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind discriminates how a question is answered.
type Kind string

const (
	KindSingleChoice   Kind = "single_choice"
	KindMultipleChoice Kind = "multiple_choice"
	KindFreeText       Kind = "free_text"
	KindNumericScale   Kind = "numeric_scale"
	KindColorSet       Kind = "color_set"
)

func validKind(k Kind) bool {
	switch k {
	case KindSingleChoice, KindMultipleChoice, KindFreeText, KindNumericScale, KindColorSet:
		return true
	}
	return false
}

func choiceKind(k Kind) bool {
	return k == KindSingleChoice || k == KindMultipleChoice || k == KindColorSet
}

// Option is a selectable answer value: an opaque label plus an optional icon tag.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// Question is a static definition loaded once at startup and never mutated.
type Question struct {
	ID            string   `yaml:"id" json:"id"`
	Prompt        string   `yaml:"prompt" json:"prompt"`
	Kind          Kind     `yaml:"kind" json:"kind"`
	Options       []Option `yaml:"options,omitempty" json:"options,omitempty"`
	MaxSelections int      `yaml:"max_selections,omitempty" json:"max_selections,omitempty"`
	Required      bool     `yaml:"required" json:"required"`
	Min           int      `yaml:"min,omitempty" json:"min,omitempty"`
	Max           int      `yaml:"max,omitempty" json:"max,omitempty"`

	// InterstitialAfter anchors a full-screen page right after this question.
	// The flow transition table is built from these anchors at startup, so
	// placement follows the list when it is edited.
	InterstitialAfter InterstitialTag `yaml:"interstitial_after,omitempty" json:"-"`
}

// GenderQuestionID names the question whose answer selects the
// wellbeing-summary asset variant.
const GenderQuestionID = "gender"

// Catalog is the ordered question list driving the funnel.
type Catalog struct {
	questions []Question
	byID      map[string]int
}

//go:embed questions.yaml
var defaultQuestionsYAML []byte

type catalogFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadCatalog parses and validates a YAML question list.
func LoadCatalog(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if len(cf.Questions) == 0 {
		return nil, fmt.Errorf("question list is empty")
	}
	byID := make(map[string]int, len(cf.Questions))
	for i, q := range cf.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: id required", i)
		}
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("question %q: duplicate id", q.ID)
		}
		if q.Prompt == "" {
			return nil, fmt.Errorf("question %q: prompt required", q.ID)
		}
		if !validKind(q.Kind) {
			return nil, fmt.Errorf("question %q: unknown kind %q", q.ID, q.Kind)
		}
		if choiceKind(q.Kind) && len(q.Options) == 0 {
			return nil, fmt.Errorf("question %q: options required for kind %q", q.ID, q.Kind)
		}
		if q.MaxSelections > 0 {
			if q.Kind != KindMultipleChoice && q.Kind != KindColorSet {
				return nil, fmt.Errorf("question %q: max_selections not allowed for kind %q", q.ID, q.Kind)
			}
			if q.MaxSelections > len(q.Options) {
				return nil, fmt.Errorf("question %q: max_selections exceeds option count", q.ID)
			}
		}
		if q.InterstitialAfter != "" && !validAnchor(q.InterstitialAfter) {
			return nil, fmt.Errorf("question %q: unknown interstitial %q", q.ID, q.InterstitialAfter)
		}
		byID[q.ID] = i
	}
	return &Catalog{questions: cf.Questions, byID: byID}, nil
}

// LoadCatalogFile reads a catalog from disk; path == "" falls back to the
// embedded default set.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return LoadCatalog(defaultQuestionsYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return LoadCatalog(data)
}

// Len returns the number of questions (totalSteps).
func (c *Catalog) Len() int { return len(c.questions) }

// At returns the question at position i.
func (c *Catalog) At(i int) *Question {
	if i < 0 || i >= len(c.questions) {
		return nil
	}
	return &c.questions[i]
}

// Index returns the position of a question id, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// Questions returns the full ordered list.
func (c *Catalog) Questions() []Question { return c.questions }
