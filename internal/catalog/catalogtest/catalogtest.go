// Package catalogtest builds catalogues from inline YAML for tests.
package catalogtest

import (
	"testing"

	"github.com/yegorkir/aqs/internal/catalog"
)

// Sample is a small bundle exercising every question kind, followups,
// cooldowns, safety tags with aliases and a sensitive group.
const Sample = `
schema_version: "1"
content_version: "test"
axes:
  - id: a
    label: Axis A
  - id: b
    label: Axis B
modules:
  - id: m1
    label: Module 1
    levels: 4
modes:
  - id: dark
    label: Dark mode
safety_tags:
  - id: gore
    group: violence
    aliases: [blood]
  - id: romance
safety_gate:
  sensitive_groups: [violence]
questions:
  - id: q_safety
    type: safety
    tags: [safety_lines_veils, pool_exclude]
    options:
      - id: gore
        label: Gore
      - id: romance
        label: Romance
  - id: q_a
    type: choice
    prompt: About A
    options:
      - id: up
        effects:
          axis_deltas: {a: 2}
          axis_evidence: {a: 1}
      - id: down
        effects:
          axis_deltas: {a: -2}
          axis_evidence: {a: 1}
    followups:
      - when: {option_id_in: [down]}
        policy: {pool: [q_b]}
  - id: q_b
    type: slider
    prompt: About B
    slider: {min: 0, max: 10}
    effects_by_range:
      - range: {min: 0, max: 4}
        effects:
          axis_deltas: {b: -1}
          axis_evidence: {b: 1}
      - range: {min: 5, max: 10}
        effects:
          axis_deltas: {b: 1}
          axis_evidence: {b: 1}
    followups_by_range:
      - range: {min: 8, max: 10}
        policy: {pool: [q_mod]}
  - id: q_mod
    type: choice
    prompt: Module interest
    cooldown: {questions: 2}
    options:
      - id: keen
        effects:
          module_delta_levels: {m1: 2}
          module_evidence: {m1: 1}
          set_modes: {dark: "yes"}
          set_tags: [likes_m1]
      - id: pass
        effects:
          set_module_level: {m1: 0}
          module_evidence: {m1: 1}
  - id: q_dilemma
    type: choice
    tags: [dilemma]
    fatigue_cost: 1
    options:
      - id: left
        effects:
          axis_deltas: {a: 1, b: -1}
          axis_evidence: {a: 0.5, b: 0.5}
  - id: q_gore
    type: choice
    content_tags: [blood]
    veil_variants:
      prompt: Softened
      options: {x: Softened X}
    options:
      - id: x
        label: Explicit X
        effects:
          axis_evidence: {a: 0.5}
`

// Parse builds a catalogue from YAML, failing the test on any load error.
func Parse(t testing.TB, doc string) *catalog.Catalogue {
	t.Helper()
	b, err := catalog.Parse([]byte(doc), catalog.FormatYAML)
	if err != nil {
		t.Fatalf("parse bundle: %v", err)
	}
	return catalog.Build(b)
}

// SampleCatalogue returns the catalogue built from Sample.
func SampleCatalogue(t testing.TB) *catalog.Catalogue {
	t.Helper()
	return Parse(t, Sample)
}
