package followup

import (
	"testing"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/catalog/catalogtest"
	"github.com/yegorkir/aqs/internal/state"
)

const poolBundle = `
schema_version: "1"
content_version: test
axes: [{id: a}]
modules: []
modes: []
safety_tags: [{id: gore, group: violence}]
safety_gate: {sensitive_groups: [violence]}
questions:
  - id: root
    type: choice
    options:
      - {id: x}
      - {id: y}
    followups:
      - when: {option_id_in: [x]}
        policy: {pool: [ghost, asked, pending, cooling, late, gory, ok1, ok2]}
      - when: {option_id_in: [x, y]}
        policy: {pool: [ok2]}
  - id: slide
    type: slider
    slider: {min: 0, max: 10}
    followups_by_range:
      - range: {min: 0}
        policy: {pool: [ok1]}
      - range: {min: 0, max: 5}
        policy: {pool: [ok2]}
  - {id: asked, type: choice}
  - {id: pending, type: choice}
  - {id: cooling, type: choice}
  - id: late
    type: choice
    eligibility: {requires: {min_asked: 5}}
  - {id: gory, type: choice, content_tags: [gore]}
  - {id: ok1, type: choice}
  - {id: ok2, type: choice}
`

func setup(t *testing.T) (*catalog.Catalogue, *state.State) {
	t.Helper()
	cat := catalogtest.Parse(t, poolBundle)
	st := state.New(cat)
	st.Asked = []string{"asked"}
	st.Pending = []string{"pending"}
	st.Cooldowns["cooling"] = state.Cooldown{Until: 10}
	return cat, st
}

func TestResolveChoiceSkipsInadmissiblePoolEntries(t *testing.T) {
	cat, st := setup(t)
	q, _ := cat.Question("root")

	m := Resolve(cat, st, q, state.Answer{QID: "root", OptionID: "x"})
	if m == nil {
		t.Fatal("expected a followup")
	}
	if m.QID != "ok1" {
		t.Fatalf("expected ok1, got %s", m.QID)
	}
	if m.RuleIndex != 0 || m.Trigger != TriggerOption {
		t.Fatalf("unexpected rule %+v", m)
	}
}

func TestResolveFirstMatchingRuleWins(t *testing.T) {
	cat, st := setup(t)
	st.Asked = append(st.Asked, "ok1", "ok2")
	q, _ := cat.Question("root")

	// rule 0 matches but its pool is exhausted; rule 1 is not consulted
	if m := Resolve(cat, st, q, state.Answer{QID: "root", OptionID: "x"}); m != nil {
		t.Fatalf("expected nil, got %+v", m)
	}
}

func TestResolveSecondRule(t *testing.T) {
	cat, st := setup(t)
	q, _ := cat.Question("root")

	m := Resolve(cat, st, q, state.Answer{QID: "root", OptionID: "y"})
	if m == nil || m.QID != "ok2" || m.RuleIndex != 1 {
		t.Fatalf("expected ok2 from rule 1, got %+v", m)
	}
}

func TestResolveSliderSkipsRulesWithoutBounds(t *testing.T) {
	cat, st := setup(t)
	q, _ := cat.Question("slide")

	m := Resolve(cat, st, q, state.Answer{QID: "slide", Value: 5})
	if m == nil || m.QID != "ok2" {
		t.Fatalf("expected ok2, got %+v", m)
	}
	if m.Trigger != TriggerRange || m.RuleIndex != 1 {
		t.Fatalf("expected range rule 1, got %+v", m)
	}
	if m := Resolve(cat, st, q, state.Answer{QID: "slide", Value: 7}); m != nil {
		t.Fatalf("expected no match above range, got %+v", m)
	}
}

func TestResolveNoRules(t *testing.T) {
	cat, st := setup(t)
	q, _ := cat.Question("ok1")
	if m := Resolve(cat, st, q, state.Answer{QID: "ok1"}); m != nil {
		t.Fatalf("expected nil, got %+v", m)
	}
}
