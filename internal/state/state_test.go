package state

import (
	"testing"

	"github.com/yegorkir/aqs/internal/catalog"
	"github.com/yegorkir/aqs/internal/catalog/catalogtest"
)

func TestNewFromCatalogueDefaults(t *testing.T) {
	cat := catalogtest.SampleCatalogue(t)
	st := New(cat)

	if st.SessionID == "" {
		t.Fatal("expected session id")
	}
	if st.Phase != PhaseWelcome {
		t.Fatalf("expected welcome phase, got %s", st.Phase)
	}
	if _, ok := st.Axes["a"]; !ok {
		t.Fatal("expected axis a")
	}
	if st.Modules["m1"].Level != 0 {
		t.Fatalf("expected level 0, got %d", st.Modules["m1"].Level)
	}
	if st.Mode("dark") != catalog.ModeUnknown {
		t.Fatalf("expected unknown mode, got %s", st.Mode("dark"))
	}
	if st.Safety.CompletionMode != CompletionUnset {
		t.Fatalf("expected unset completion, got %s", st.Safety.CompletionMode)
	}
	if st.Stop.MinQuestions != 10 {
		t.Fatalf("expected default min questions, got %d", st.Stop.MinQuestions)
	}
	if New(cat).SessionID == st.SessionID {
		t.Fatal("session ids must be unique")
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := New(catalogtest.SampleCatalogue(t))
	st.Asked = append(st.Asked, "q1")
	st.Focus = &Focus{Kind: FocusAxis, ID: "a"}
	margin := 0.3
	st.LastMargin = &margin
	ax := st.Axes["a"]
	ax.RecentDeltas = append(ax.RecentDeltas, 2)
	st.Axes["a"] = ax

	c := st.Clone()
	c.Asked[0] = "changed"
	c.Focus.ID = "b"
	*c.LastMargin = 9
	cax := c.Axes["a"]
	cax.RecentDeltas[0] = -2
	c.Axes["a"] = cax
	c.Modes["dark"] = catalog.ModeTrue

	if st.Asked[0] != "q1" {
		t.Error("asked shared")
	}
	if st.Focus.ID != "a" {
		t.Error("focus shared")
	}
	if *st.LastMargin != 0.3 {
		t.Error("margin shared")
	}
	if st.Axes["a"].RecentDeltas[0] != 2 {
		t.Error("recent deltas shared")
	}
	if st.Mode("dark") != catalog.ModeUnknown {
		t.Error("modes shared")
	}
}

func TestCooldownCountsAskedQuestions(t *testing.T) {
	st := &State{Asked: []string{"x"}, Cooldowns: map[string]Cooldown{"q": {Until: 3}}}

	if !st.CooldownBlocked("q") {
		t.Fatal("expected blocked at 1 asked")
	}
	st.Asked = append(st.Asked, "y", "z")
	if st.CooldownBlocked("q") {
		t.Fatal("expected released at 3 asked")
	}
	if st.CooldownBlocked("other") {
		t.Fatal("no entry means no cooldown")
	}
}

func TestFocusMatches(t *testing.T) {
	touched := catalog.TouchSet{Axes: []string{"a"}, Modules: []string{"m1"}, Modes: []string{"dark"}}

	cases := []struct {
		focus *Focus
		want  bool
	}{
		{nil, false},
		{&Focus{Kind: FocusAxis, ID: "a"}, true},
		{&Focus{Kind: FocusAxis, ID: "b"}, false},
		{&Focus{Kind: FocusModule, ID: "m1"}, true},
		{&Focus{Kind: FocusMode, ID: "dark"}, true},
		{&Focus{Kind: FocusMode, ID: "a"}, false},
	}
	for _, c := range cases {
		if got := c.focus.Matches(touched); got != c.want {
			t.Errorf("focus %+v: expected %v, got %v", c.focus, c.want, got)
		}
	}

	if (&Focus{Kind: FocusAxis, ID: "a"}).AllowsRepeat() {
		t.Error("axis focus must not allow repeats")
	}
	if !(&Focus{Kind: FocusMode, ID: "dark"}).AllowsRepeat() {
		t.Error("mode focus allows repeats")
	}
	if (&Focus{Kind: FocusModule, ID: "m1"}).IgnoredAxis() != "" {
		t.Error("module focus ignores no axis")
	}
}
