package catalog

import (
	"strings"

	"github.com/yegorkir/aqs/internal/preconfig"
)

// #region catalogue

// Catalogue is the read-only, id-indexed view of a content bundle.
// Lookups are total: a missing id yields ok == false, never a panic.
type Catalogue struct {
	SchemaVersion  string
	ContentVersion string

	axes      []AxisDef
	axisIdx   map[string]int
	modules   []ModuleDef
	moduleIdx map[string]int
	modes     []ModeDef
	modeIdx   map[string]int
	questions []*Question
	questIdx  map[string]int
	tags      []SafetyTag
	tagIdx    map[string]int // ids and aliases

	keyAxes         []string
	sensitiveGroups map[string]bool
	stop            StopConfig
	preconfig       preconfig.Config
}

func (c *Catalogue) Axes() []AxisDef         { return c.axes }
func (c *Catalogue) Modules() []ModuleDef    { return c.modules }
func (c *Catalogue) Modes() []ModeDef        { return c.modes }
func (c *Catalogue) Questions() []*Question  { return c.questions }
func (c *Catalogue) SafetyTags() []SafetyTag { return c.tags }

// Axis looks up an axis definition.
func (c *Catalogue) Axis(id string) (AxisDef, bool) {
	i, ok := c.axisIdx[id]
	if !ok {
		return AxisDef{}, false
	}
	return c.axes[i], true
}

// Module looks up a module definition.
func (c *Catalogue) Module(id string) (ModuleDef, bool) {
	i, ok := c.moduleIdx[id]
	if !ok {
		return ModuleDef{}, false
	}
	return c.modules[i], true
}

// Mode looks up a mode definition.
func (c *Catalogue) Mode(id string) (ModeDef, bool) {
	i, ok := c.modeIdx[id]
	if !ok {
		return ModeDef{}, false
	}
	return c.modes[i], true
}

// Question looks up a question.
func (c *Catalogue) Question(id string) (*Question, bool) {
	i, ok := c.questIdx[id]
	if !ok {
		return nil, false
	}
	return c.questions[i], true
}

// SafetyTag looks up a safety tag by id or alias.
func (c *Catalogue) SafetyTag(id string) (SafetyTag, bool) {
	i, ok := c.tagIdx[id]
	if !ok {
		return SafetyTag{}, false
	}
	return c.tags[i], true
}

// CanonicalTag resolves an alias to its safety tag id. Unknown tags are returned unchanged.
func (c *Catalogue) CanonicalTag(tag string) string {
	if t, ok := c.SafetyTag(tag); ok {
		return t.ID
	}
	return tag
}

// IsSensitive reports whether tag belongs to a group gated until safety setup completes.
func (c *Catalogue) IsSensitive(tag string) bool {
	t, ok := c.SafetyTag(tag)
	if !ok || t.Group == "" {
		return false
	}
	return c.sensitiveGroups[t.Group]
}

// KeyAxes returns the axes the stop evaluator judges; all axes unless the bundle narrows them.
func (c *Catalogue) KeyAxes() []string {
	if len(c.keyAxes) > 0 {
		return c.keyAxes
	}
	ids := make([]string, len(c.axes))
	for i, a := range c.axes {
		ids[i] = a.ID
	}
	return ids
}

// Stop returns the bundle's stop configuration with defaults filled in.
func (c *Catalogue) Stop() StopConfig { return c.stop }

// Preconfig returns the bundle's preconfig clarify settings with defaults filled in.
func (c *Catalogue) Preconfig() preconfig.Config { return c.preconfig }

// SafetyLinesVeilsQuestion returns the tri-state safety setup question, if the bundle has one.
func (c *Catalogue) SafetyLinesVeilsQuestion() (*Question, bool) {
	for _, q := range c.questions {
		if q.Kind() == KindSafety && q.HasTag(TagSafetyLinesVeils) {
			return q, true
		}
	}
	return nil, false
}

// #endregion catalogue

// #region build

// Build indexes a bundle. Items without an id are skipped; the first
// definition of a duplicated id wins. Build never fails: structural problems
// are reported by Check and Validate before the engine runs.
func Build(b *Bundle) *Catalogue {
	c := &Catalogue{
		SchemaVersion:   b.SchemaVersion,
		ContentVersion:  b.ContentVersion,
		axisIdx:         map[string]int{},
		moduleIdx:       map[string]int{},
		modeIdx:         map[string]int{},
		questIdx:        map[string]int{},
		tagIdx:          map[string]int{},
		sensitiveGroups: map[string]bool{},
		keyAxes:         append([]string(nil), b.KeyAxes...),
		stop:            buildStop(b.Stop),
		preconfig:       buildPreconfig(b.Preconfig),
	}

	for _, a := range b.Axes {
		if a.ID == "" || hasKey(c.axisIdx, a.ID) {
			continue
		}
		c.axisIdx[a.ID] = len(c.axes)
		c.axes = append(c.axes, buildAxis(a))
	}
	for _, m := range b.Modules {
		if m.ID == "" || hasKey(c.moduleIdx, m.ID) {
			continue
		}
		c.moduleIdx[m.ID] = len(c.modules)
		c.modules = append(c.modules, buildModule(m))
	}
	for _, m := range b.Modes {
		if m.ID == "" || hasKey(c.modeIdx, m.ID) {
			continue
		}
		def := ModeDef{ID: m.ID, Label: m.Label, Default: ModeUnknown}
		if m.Default != nil {
			def.Default = NormalizeMode(*m.Default)
		}
		c.modeIdx[m.ID] = len(c.modes)
		c.modes = append(c.modes, def)
	}
	for _, t := range b.SafetyTags {
		if t.ID == "" || hasKey(c.tagIdx, t.ID) {
			continue
		}
		idx := len(c.tags)
		c.tags = append(c.tags, SafetyTag{ID: t.ID, Label: t.Label, Group: t.Group, Aliases: t.Aliases})
		c.tagIdx[t.ID] = idx
	}
	// Aliases never shadow a real id or an earlier alias.
	for i, t := range c.tags {
		for _, alias := range t.Aliases {
			if !hasKey(c.tagIdx, alias) {
				c.tagIdx[alias] = i
			}
		}
	}
	for _, g := range b.SafetyGate.SensitiveGroups {
		c.sensitiveGroups[g] = true
	}
	for _, qd := range b.Questions {
		if qd.ID == "" || hasKey(c.questIdx, qd.ID) {
			continue
		}
		q := buildQuestion(qd)
		c.questIdx[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}
	return c
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}

func buildThresholds(r ResultDoc) Thresholds {
	t := DefaultThresholds()
	if r.ConfidenceThresholds == nil {
		return t
	}
	t.Low = floatOr(r.ConfidenceThresholds.Low, t.Low)
	t.Medium = floatOr(r.ConfidenceThresholds.Medium, t.Medium)
	t.High = floatOr(r.ConfidenceThresholds.High, t.High)
	return t
}

func buildAxis(a AxisDoc) AxisDef {
	def := AxisDef{
		ID:         a.ID,
		Label:      a.Label,
		Score:      floatOr(a.Defaults.Score, 0),
		Confidence: floatOr(a.Defaults.Confidence, 0),
		Evidence:   floatOr(a.Defaults.Evidence, 0),
		Thresholds: buildThresholds(a.Result),
		Conflict:   DefaultConflictParams(),
	}
	if a.Conflict != nil {
		def.Conflict.Penalty = floatOr(a.Conflict.Penalty, def.Conflict.Penalty)
		def.Conflict.StrongDelta = floatOr(a.Conflict.StrongDelta, def.Conflict.StrongDelta)
		def.Conflict.Window = intOr(a.Conflict.Window, def.Conflict.Window)
	}
	return def
}

func buildModule(m ModuleDoc) ModuleDef {
	return ModuleDef{
		ID:         m.ID,
		Label:      m.Label,
		Level:      clampLevel(intOr(m.Defaults.Level, 0)),
		Confidence: floatOr(m.Defaults.Confidence, 0),
		Evidence:   floatOr(m.Defaults.Evidence, 0),
		Thresholds: buildThresholds(m.Result),
	}
}

func buildStop(s *StopDoc) StopConfig {
	cfg := DefaultStopConfig()
	if s == nil {
		return cfg
	}
	cfg.MinQuestions = intOr(s.MinQuestions, cfg.MinQuestions)
	cfg.MaxQuestions = intOr(s.MaxQuestions, cfg.MaxQuestions)
	cfg.TargetMargin = floatOr(s.TargetMargin, cfg.TargetMargin)
	cfg.MinAxisConfidence = floatOr(s.MinAxisConfidence, cfg.MinAxisConfidence)
	return cfg
}

func buildPreconfig(p *PreconfigDoc) preconfig.Config {
	cfg := preconfig.DefaultConfig()
	if p == nil {
		return cfg
	}
	for _, pair := range p.AxisPairs {
		if len(pair.Pair) != 2 || pair.Pair[0] == "" || pair.Pair[1] == "" {
			continue
		}
		cfg.AxisPairs = append(cfg.AxisPairs, [2]string{pair.Pair[0], pair.Pair[1]})
	}
	cfg.MinPercent = floatOr(p.Clarify.MinPercent, cfg.MinPercent)
	cfg.MaxDiff = floatOr(p.Clarify.MaxDiff, cfg.MaxDiff)
	cfg.MinMultiplier = floatOr(p.Clarify.MinMultiplier, cfg.MinMultiplier)
	cfg.MaxMultiplier = floatOr(p.Clarify.MaxMultiplier, cfg.MaxMultiplier)
	return cfg
}

func buildQuestion(d QuestionDoc) *Question {
	q := &Question{
		ID:          d.ID,
		Prompt:      d.Prompt,
		Help:        d.Help,
		Tags:        d.Tags,
		ContentTags: d.ContentTags,
		FatigueCost: d.FatigueCost,
		Eligibility: Eligibility{
			Requires: Requires{
				MinAsked:          intOr(d.Eligibility.Requires.MinAsked, 0),
				AxesConfidenceLT:  d.Eligibility.Requires.AxesConfidenceLT,
				AxesConfidenceGTE: d.Eligibility.Requires.AxesConfidenceGTE,
				TagsAll:           d.Eligibility.Requires.TagsAll,
				TagsAny:           d.Eligibility.Requires.TagsAny,
				Modes:             d.Eligibility.Requires.Modes,
			},
			Forbids: Forbids{
				TagsAny: d.Eligibility.Forbids.TagsAny,
				Modes:   d.Eligibility.Forbids.Modes,
			},
		},
	}
	if d.Cooldown != nil {
		q.Cooldown = d.Cooldown.Questions
	}
	if d.VeilVariants != nil {
		v := &Veil{Prompt: d.VeilVariants.Prompt, Help: d.VeilVariants.Help, Options: d.VeilVariants.Options}
		if d.VeilVariants.Labels != nil {
			v.MinLabel, v.MaxLabel = d.VeilVariants.Labels.Min, d.VeilVariants.Labels.Max
		}
		q.Veil = v
	}

	switch Kind(strings.ToLower(d.Type)) {
	case KindChoice:
		body := &ChoiceBody{}
		for _, o := range d.Options {
			body.Options = append(body.Options, Option{ID: o.ID, Label: o.Label, ContentTags: o.ContentTags, Effects: o.Effects})
		}
		for i, f := range d.Followups {
			body.Followups = append(body.Followups, ChoiceFollowup{Index: i, OptionIDs: f.When.OptionIDIn, Pool: f.Policy.Pool})
		}
		q.Body = body
	case KindSlider:
		body := &SliderBody{}
		if d.Slider != nil {
			body.Min = floatOr(d.Slider.Min, 0)
			body.Max = floatOr(d.Slider.Max, 0)
			body.Step = d.Slider.Step
			body.MinLabel, body.MaxLabel = d.Slider.MinLabel, d.Slider.MaxLabel
			body.Labels = d.Slider.Labels
		}
		for _, r := range d.EffectsByRange {
			rng, ok := buildRange(r.Range)
			if !ok {
				continue
			}
			body.Ranges = append(body.Ranges, RangeEffects{Range: rng, Effects: r.Effects})
		}
		for i, f := range d.FollowupsByRange {
			rng, ok := buildRange(f.Range)
			if !ok {
				continue
			}
			body.Followups = append(body.Followups, RangeFollowup{Index: i, Range: rng, Pool: f.Policy.Pool})
		}
		q.Body = body
	default:
		body := &SafetyBody{TriState: q.HasTag(TagSafetyLinesVeils)}
		for _, o := range d.Options {
			body.Options = append(body.Options, SafetyOption{ID: o.ID, Label: o.Label, ContentTags: o.ContentTags})
		}
		q.Body = body
	}

	q.Touched = Touches(q.Body)
	return q
}

// buildRange rejects ranges without both numeric bounds; such ranges never match.
func buildRange(r RangeDoc) (Range, bool) {
	if r.Min == nil || r.Max == nil {
		return Range{}, false
	}
	return Range{Min: *r.Min, Max: *r.Max}, true
}

// #endregion build

// #region helpers

func floatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func clampLevel(l int) int {
	if l < 0 {
		return 0
	}
	if l > MaxModuleLevel {
		return MaxModuleLevel
	}
	return l
}

// #endregion helpers
