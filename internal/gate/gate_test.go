package gate

import (
	"testing"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/catalog/catalogtest"
	"github.com/yegorkir/aqs/internal/state"
)

func makeState(t *testing.T) (*catalog.Catalogue, *state.State) {
	t.Helper()
	cat := catalogtest.SampleCatalogue(t)
	return cat, state.New(cat)
}

func question(t *testing.T, cat *catalog.Catalogue, id string) *catalog.Question {
	t.Helper()
	q, ok := cat.Question(id)
	if !ok {
		t.Fatalf("question %s not found", id)
	}
	return q
}

func withEligibility(e catalog.Eligibility) *catalog.Question {
	return &catalog.Question{ID: "q", Eligibility: e, Body: &catalog.ChoiceBody{}}
}

// #region eligibility-tests
func TestEligibleMinAsked(t *testing.T) {
	_, st := makeState(t)
	q := withEligibility(catalog.Eligibility{Requires: catalog.Requires{MinAsked: 2}})

	if Eligible(q, st, "") {
		t.Fatal("expected ineligible with 0 asked")
	}
	st.Asked = []string{"x", "y"}
	if !Eligible(q, st, "") {
		t.Fatal("expected eligible with 2 asked")
	}
}

func TestEligibleConfidenceThresholds(t *testing.T) {
	_, st := makeState(t)
	ax := st.Axes["a"]
	ax.Confidence = 0.5
	st.Axes["a"] = ax

	lt := withEligibility(catalog.Eligibility{Requires: catalog.Requires{AxesConfidenceLT: map[string]float64{"a": 0.5}}})
	if Eligible(lt, st, "") {
		t.Fatal("confidence equal to lt threshold must fail")
	}
	if !Eligible(lt, st, "a") {
		t.Fatal("ignored axis must be skipped")
	}

	gte := withEligibility(catalog.Eligibility{Requires: catalog.Requires{AxesConfidenceGTE: map[string]float64{"a": 0.5, "b": 0.1}}})
	if Eligible(gte, st, "") {
		t.Fatal("b below gte threshold must fail")
	}
	if Eligible(gte, st, "a") {
		t.Fatal("ignoring a must not waive b")
	}

	unknown := withEligibility(catalog.Eligibility{Requires: catalog.Requires{AxesConfidenceLT: map[string]float64{"zz": 0.3}}})
	if !Eligible(unknown, st, "") {
		t.Fatal("unknown axis reads as confidence 0")
	}
}

func TestEligibleTags(t *testing.T) {
	_, st := makeState(t)
	st.Tags = []string{"x"}

	cases := []struct {
		name string
		e    catalog.Eligibility
		want bool
	}{
		{"all present", catalog.Eligibility{Requires: catalog.Requires{TagsAll: []string{"x"}}}, true},
		{"all missing", catalog.Eligibility{Requires: catalog.Requires{TagsAll: []string{"x", "y"}}}, false},
		{"any hit", catalog.Eligibility{Requires: catalog.Requires{TagsAny: []string{"y", "x"}}}, true},
		{"any miss", catalog.Eligibility{Requires: catalog.Requires{TagsAny: []string{"y"}}}, false},
		{"empty any", catalog.Eligibility{Requires: catalog.Requires{TagsAny: []string{}}}, true},
		{"forbidden present", catalog.Eligibility{Forbids: catalog.Forbids{TagsAny: []string{"x"}}}, false},
		{"forbidden absent", catalog.Eligibility{Forbids: catalog.Forbids{TagsAny: []string{"y"}}}, true},
	}
	for _, c := range cases {
		if got := Eligible(withEligibility(c.e), st, ""); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestEligibleModes(t *testing.T) {
	_, st := makeState(t)
	st.Modes["dark"] = "yes"

	req := withEligibility(catalog.Eligibility{Requires: catalog.Requires{Modes: map[string]catalog.ModeValue{"dark": catalog.ModeTrue}}})
	if !Eligible(req, st, "") {
		t.Fatal("yes must match true")
	}
	fb := withEligibility(catalog.Eligibility{Forbids: catalog.Forbids{Modes: map[string]catalog.ModeValue{"dark": "true"}}})
	if Eligible(fb, st, "") {
		t.Fatal("forbidden mode value must fail")
	}
	unknown := withEligibility(catalog.Eligibility{Requires: catalog.Requires{Modes: map[string]catalog.ModeValue{"ghost": catalog.ModeUnknown}}})
	if !Eligible(unknown, st, "") {
		t.Fatal("missing mode reads as unknown")
	}
}

func TestEligibleForFocusIgnoresOnlyAxisFocus(t *testing.T) {
	_, st := makeState(t)
	ax := st.Axes["a"]
	ax.Confidence = 0.9
	st.Axes["a"] = ax
	q := withEligibility(catalog.Eligibility{Requires: catalog.Requires{AxesConfidenceLT: map[string]float64{"a": 0.5}}})

	st.Focus = &state.Focus{Kind: state.FocusAxis, ID: "a"}
	if !EligibleForFocus(q, st) {
		t.Fatal("axis focus waives its own threshold")
	}
	st.Focus = &state.Focus{Kind: state.FocusModule, ID: "a"}
	if EligibleForFocus(q, st) {
		t.Fatal("module focus waives nothing")
	}
}

// #endregion eligibility-tests

// #region safety-tests
func TestSafetyPreGateBlocksSensitiveGroup(t *testing.T) {
	cat, st := makeState(t)
	q := question(t, cat, "q_gore")

	d := SafetyStatus(q, st, cat)
	if d.Allowed || d.Reason != ReasonPreSafetyGate {
		t.Fatalf("expected pre_safety_gate, got %+v", d)
	}
	if d.Tag != "gore" {
		t.Fatalf("expected canonical tag gore, got %s", d.Tag)
	}

	st.Safety.CompletionMode = state.CompletionCompleted
	if d := SafetyStatus(q, st, cat); !d.Allowed || d.Veiled {
		t.Fatalf("expected allowed after setup, got %+v", d)
	}
}

func TestSafetyLineBeatsVeil(t *testing.T) {
	cat, st := makeState(t)
	st.Safety.CompletionMode = state.CompletionCompleted
	st.Safety.Lines = []string{"gore"}
	st.Safety.Veils = []string{"gore"}

	d := SafetyStatus(question(t, cat, "q_gore"), st, cat)
	if d.Allowed || d.Reason != ReasonLine {
		t.Fatalf("expected line, got %+v", d)
	}
}

func TestSafetyVeil(t *testing.T) {
	cat, st := makeState(t)
	st.Safety.CompletionMode = state.CompletionCompleted
	st.Safety.Veils = []string{"blood"}

	d := SafetyStatus(question(t, cat, "q_gore"), st, cat)
	if !d.Allowed || !d.Veiled {
		t.Fatalf("expected veiled, got %+v", d)
	}

	noVariant := &catalog.Question{ID: "nv", ContentTags: []string{"gore"}, Body: &catalog.ChoiceBody{}}
	d = SafetyStatus(noVariant, st, cat)
	if d.Allowed || d.Reason != ReasonVeilMissing {
		t.Fatalf("expected veil_missing_variants, got %+v", d)
	}
}

func TestSafetyChecksOptionTags(t *testing.T) {
	cat, st := makeState(t)
	st.Safety.CompletionMode = state.CompletionCompleted
	st.Safety.Lines = []string{"romance"}
	q := &catalog.Question{ID: "opt", Body: &catalog.ChoiceBody{Options: []catalog.Option{{ID: "o", ContentTags: []string{"romance"}}}}}

	if d := SafetyStatus(q, st, cat); d.Allowed {
		t.Fatalf("option tags must be gated, got %+v", d)
	}
}

// #endregion safety-tests

// #region admit-tests
func TestAdmitOrder(t *testing.T) {
	cat, st := makeState(t)
	q := question(t, cat, "q_mod")

	if a := Admit(cat, q, st, AdmitOptions{}); !a.Admitted {
		t.Fatalf("expected admitted, got %+v", a)
	}

	st.Asked = []string{"q_mod"}
	st.Cooldowns["q_mod"] = state.Cooldown{Until: 3}
	if a := Admit(cat, q, st, AdmitOptions{}); a.Rejection != RejectAsked {
		t.Fatalf("expected asked, got %s", a.Rejection)
	}
	if a := Admit(cat, q, st, AdmitOptions{AllowRepeat: true}); a.Rejection != RejectCooldown {
		t.Fatalf("expected cooldown, got %s", a.Rejection)
	}

	if a := AdmitByID(cat, "ghost", st, AdmitOptions{}); a.Rejection != RejectUnknown {
		t.Fatalf("expected unknown, got %s", a.Rejection)
	}

	if a := Admit(cat, question(t, cat, "q_gore"), st, AdmitOptions{}); a.Rejection != RejectSafety || a.Safety.Reason != ReasonPreSafetyGate {
		t.Fatalf("expected safety rejection, got %+v", a)
	}
}

// #endregion admit-tests
