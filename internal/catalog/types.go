package catalog

import "slices"

// #region constants

// Membership tags with engine meaning.
const (
	TagPoolExclude      = "pool_exclude"
	TagDilemma          = "dilemma"
	TagSafetyLinesVeils = "safety_lines_veils"
)

// MaxModuleLevel is the highest module level; levels run 0..MaxModuleLevel.
const MaxModuleLevel = 3

// #endregion constants

// #region definitions

// Thresholds are the confidence bucket edges used for result display and focus exit.
type Thresholds struct {
	Low    float64
	Medium float64
	High   float64
}

// DefaultThresholds returns the standard bucket edges.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.2, Medium: 0.4, High: 0.66}
}

// ConflictParams tune conflict detection and its confidence discount for one axis.
type ConflictParams struct {
	Penalty     float64 // confidence discount per detected conflict (default 0.15)
	StrongDelta float64 // |delta| that counts as a strong signal (default 2.0)
	Window      int     // number of recent deltas inspected (default 6)
}

// DefaultConflictParams returns the standard conflict parameters.
func DefaultConflictParams() ConflictParams {
	return ConflictParams{Penalty: 0.15, StrongDelta: 2.0, Window: 6}
}

// AxisDef is a continuous preference dimension.
type AxisDef struct {
	ID         string
	Label      string
	Score      float64
	Confidence float64
	Evidence   float64
	Thresholds Thresholds
	Conflict   ConflictParams
}

// ModuleDef is a discrete interest area with levels 0..MaxModuleLevel.
type ModuleDef struct {
	ID         string
	Label      string
	Level      int
	Confidence float64
	Evidence   float64
	Thresholds Thresholds
}

// ModeDef is a categorical/tri-state setting.
type ModeDef struct {
	ID      string
	Label   string
	Default ModeValue
}

// SafetyTag is a sensitive content category.
type SafetyTag struct {
	ID      string
	Label   string
	Group   string
	Aliases []string
}

// StopConfig controls when a result may be proposed.
type StopConfig struct {
	MinQuestions      int
	MaxQuestions      int // 0 disables the hard cap
	TargetMargin      float64
	MinAxisConfidence float64
}

// DefaultStopConfig returns the stop parameters used when the bundle has none.
func DefaultStopConfig() StopConfig {
	return StopConfig{
		MinQuestions:      10,
		TargetMargin:      0.12,
		MinAxisConfidence: 0.35,
	}
}

// #endregion definitions

// #region question

// Kind discriminates the question union.
type Kind string

const (
	KindChoice Kind = "choice"
	KindSlider Kind = "slider"
	KindSafety Kind = "safety"
)

// Body is the variant-specific part of a question: *ChoiceBody, *SliderBody or *SafetyBody.
type Body interface {
	Kind() Kind
	isBody()
}

// Requires lists the conditions a question needs before it can be asked.
type Requires struct {
	MinAsked          int
	AxesConfidenceLT  map[string]float64
	AxesConfidenceGTE map[string]float64
	TagsAll           []string
	TagsAny           []string
	Modes             map[string]ModeValue
}

// Forbids lists the conditions that rule a question out.
type Forbids struct {
	TagsAny []string
	Modes   map[string]ModeValue
}

type Eligibility struct {
	Requires Requires
	Forbids  Forbids
}

// Veil is the softened presentation used when a question's content is veiled.
type Veil struct {
	Prompt   string
	Help     string
	Options  map[string]string
	MinLabel string
	MaxLabel string
}

// Question is one catalogue entry. Common fields live here; variant fields live in Body.
type Question struct {
	ID          string
	Prompt      string
	Help        string
	Tags        []string
	ContentTags []string
	Eligibility Eligibility
	Cooldown    int // questions to wait before the question is eligible again; 0 = none
	FatigueCost float64
	Veil        *Veil
	Body        Body

	// Touched is every axis/module/mode any answer to this question can affect.
	Touched TouchSet
}

// Kind returns the variant of the question.
func (q *Question) Kind() Kind {
	if q.Body == nil {
		return ""
	}
	return q.Body.Kind()
}

// HasTag reports membership in a question tag such as TagDilemma.
func (q *Question) HasTag(tag string) bool {
	return slices.Contains(q.Tags, tag)
}

// AllContentTags returns the question's content tags followed by its options' tags, deduplicated.
func (q *Question) AllContentTags() []string {
	out := make([]string, 0, len(q.ContentTags))
	add := func(tags []string) {
		for _, t := range tags {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	add(q.ContentTags)
	switch b := q.Body.(type) {
	case *ChoiceBody:
		for _, o := range b.Options {
			add(o.ContentTags)
		}
	case *SafetyBody:
		for _, o := range b.Options {
			add(o.ContentTags)
		}
	}
	return out
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the inclusive bounds.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Option is a choice answer with its effects.
type Option struct {
	ID          string
	Label       string
	ContentTags []string
	Effects     Effects
}

// ChoiceFollowup enqueues a pool question when the chosen option is listed.
type ChoiceFollowup struct {
	Index     int
	OptionIDs []string
	Pool      []string
}

// ChoiceBody is a single-select question.
type ChoiceBody struct {
	Options   []Option
	Followups []ChoiceFollowup
}

func (*ChoiceBody) Kind() Kind { return KindChoice }
func (*ChoiceBody) isBody()    {}

// Option looks up an option by id.
func (b *ChoiceBody) Option(id string) (Option, bool) {
	for _, o := range b.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// RangeEffects binds effects to a slider value range.
type RangeEffects struct {
	Range   Range
	Effects Effects
}

// RangeFollowup enqueues a pool question when the slider value falls in Range.
type RangeFollowup struct {
	Index int
	Range Range
	Pool  []string
}

// SliderBody is a numeric scale question.
type SliderBody struct {
	Min       float64
	Max       float64
	Step      float64
	MinLabel  string
	MaxLabel  string
	Labels    map[string]string
	Ranges    []RangeEffects
	Followups []RangeFollowup
}

func (*SliderBody) Kind() Kind { return KindSlider }
func (*SliderBody) isBody()    {}

// EffectsFor returns the effects of the first range containing v.
func (b *SliderBody) EffectsFor(v float64) (Effects, bool) {
	for _, r := range b.Ranges {
		if r.Range.Contains(v) {
			return r.Effects, true
		}
	}
	return Effects{}, false
}

// SafetyOption is a sensitive category the respondent classifies as ok, veil or line.
type SafetyOption struct {
	ID          string
	Label       string
	ContentTags []string
}

// Tags returns the content tags the option stands for; the option id when none are declared.
func (o SafetyOption) Tags() []string {
	if len(o.ContentTags) == 0 {
		return []string{o.ID}
	}
	return o.ContentTags
}

// SafetyBody is the safety configuration question.
type SafetyBody struct {
	Options  []SafetyOption
	TriState bool // ok/veil/line per option; otherwise a plain selection means line
}

func (*SafetyBody) Kind() Kind { return KindSafety }
func (*SafetyBody) isBody()    {}

// #endregion question

// #region presented

// Presented is the text a collaborator should render for a question.
type Presented struct {
	Prompt       string
	Help         string
	OptionLabels map[string]string
	MinLabel     string
	MaxLabel     string
	Veiled       bool
}

// Presented returns the question text, substituting the veil variant when veiled.
func (q *Question) Presented(veiled bool) Presented {
	p := Presented{Prompt: q.Prompt, Help: q.Help, OptionLabels: map[string]string{}}
	switch b := q.Body.(type) {
	case *ChoiceBody:
		for _, o := range b.Options {
			p.OptionLabels[o.ID] = o.Label
		}
	case *SafetyBody:
		for _, o := range b.Options {
			p.OptionLabels[o.ID] = o.Label
		}
	case *SliderBody:
		p.MinLabel, p.MaxLabel = b.MinLabel, b.MaxLabel
	}
	if !veiled || q.Veil == nil {
		return p
	}
	p.Veiled = true
	if q.Veil.Prompt != "" {
		p.Prompt = q.Veil.Prompt
	}
	if q.Veil.Help != "" {
		p.Help = q.Veil.Help
	}
	if _, ok := q.Body.(*ChoiceBody); ok {
		for id, label := range q.Veil.Options {
			if _, exists := p.OptionLabels[id]; exists {
				p.OptionLabels[id] = label
			}
		}
	}
	if _, ok := q.Body.(*SliderBody); ok {
		if q.Veil.MinLabel != "" {
			p.MinLabel = q.Veil.MinLabel
		}
		if q.Veil.MaxLabel != "" {
			p.MaxLabel = q.Veil.MaxLabel
		}
	}
	return p
}

// #endregion presented
