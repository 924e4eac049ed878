package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/state"
)

// #region fixture-types

// Fixture is a scripted session: a bundle, a seed, optional setup and the
// answers to give, with what each cycle is expected to produce.
type Fixture struct {
	Description string    `yaml:"description,omitempty"`
	Bundle      string    `yaml:"bundle"` // relative to the fixture file
	Seed        uint64    `yaml:"seed"`
	Start       time.Time `yaml:"start,omitempty"` // answer timestamps advance one second per step from here
	Setup       Setup     `yaml:"setup,omitempty"`
	Steps       []Step    `yaml:"steps"`

	dir string
}

// Setup is applied before the first answer.
type Setup struct {
	Safety       *SafetySetup   `yaml:"safety,omitempty"`
	Priors       *PriorsSetup   `yaml:"priors,omitempty"`
	AxisPriority map[string]int `yaml:"axis_priority,omitempty"`
	Focus        *FocusSetup    `yaml:"focus,omitempty"`
}

type SafetySetup struct {
	Lines     []string `yaml:"lines,omitempty"`
	Veils     []string `yaml:"veils,omitempty"`
	Completed bool     `yaml:"completed"`
}

type PriorsSetup struct {
	Axes    map[string]float64 `yaml:"axes"`
	Modules map[string]float64 `yaml:"modules"`
	Clarify map[string]float64 `yaml:"clarify"`
}

type FocusSetup struct {
	Kind state.FocusKind `yaml:"type"`
	ID   string          `yaml:"id"`
}

// Step is one answer. QID defaults to the question the session presents.
// Every expectation left empty is not checked; Next uses "-" for "nothing left".
type Step struct {
	QID        string                       `yaml:"qid,omitempty"`
	OptionID   string                       `yaml:"oid,omitempty"`
	Value      float64                      `yaml:"value,omitempty"`
	Selections []string                     `yaml:"selections,omitempty"`
	Levels     map[string]state.SafetyLevel `yaml:"levels,omitempty"`

	Expect   string      `yaml:"expect,omitempty"`
	Followup string      `yaml:"followup,omitempty"`
	Stop     string      `yaml:"stop,omitempty"`
	Phase    state.Phase `yaml:"phase,omitempty"`
	Next     string      `yaml:"next,omitempty"`
}

// NextNone is the Step.Next value expecting no further question.
const NextNone = "-"

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a YAML fixture file. Unknown keys are errors.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Bundle == "" {
		return nil, fmt.Errorf("fixture %s: bundle is required", path)
	}
	f.dir = filepath.Dir(path)
	return &f, nil
}

// BundlePath resolves the bundle against the fixture's directory.
func (f *Fixture) BundlePath() string {
	if filepath.IsAbs(f.Bundle) {
		return f.Bundle
	}
	return filepath.Join(f.dir, f.Bundle)
}

// Catalogue loads, validates and builds the fixture's bundle.
func (f *Fixture) Catalogue() (*catalog.Catalogue, error) {
	return LoadCatalogue(f.BundlePath())
}

// LoadCatalogue loads a bundle file and refuses it when content validation
// reports any problem.
func LoadCatalogue(path string) (*catalog.Catalogue, error) {
	b, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := catalog.Validate(b); len(errs) > 0 {
		return nil, fmt.Errorf("validate bundle %s: %w", path, errors.Join(errs...))
	}
	return catalog.Build(b), nil
}

// answer converts the step to a session answer for qid.
func (s Step) answer(qid string, at time.Time) state.Answer {
	if s.QID != "" {
		qid = s.QID
	}
	return state.Answer{
		QID:        qid,
		OptionID:   s.OptionID,
		Value:      s.Value,
		Selections: s.Selections,
		Levels:     s.Levels,
		At:         at,
	}
}

// #endregion fixture-loader
