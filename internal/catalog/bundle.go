package catalog

// #region bundle

// Bundle is the decoded content bundle as authored (JSON or YAML).
// It is converted into an indexed Catalogue by Build.
type Bundle struct {
	SchemaVersion  string         `json:"schema_version" yaml:"schema_version" validate:"required"`
	ContentVersion string         `json:"content_version" yaml:"content_version" validate:"required"`
	Axes           []AxisDoc      `json:"axes" yaml:"axes" validate:"required,dive"`
	Modules        []ModuleDoc    `json:"modules" yaml:"modules" validate:"required,dive"`
	Modes          []ModeDoc      `json:"modes" yaml:"modes" validate:"required,dive"`
	SafetyTags     []SafetyTagDoc `json:"safety_tags" yaml:"safety_tags" validate:"required,dive"`
	Questions      []QuestionDoc  `json:"questions" yaml:"questions" validate:"required,dive"`
	KeyAxes        []string       `json:"key_axes,omitempty" yaml:"key_axes,omitempty"`
	Stop           *StopDoc       `json:"stop,omitempty" yaml:"stop,omitempty"`
	Preconfig      *PreconfigDoc  `json:"preconfig,omitempty" yaml:"preconfig,omitempty"`
	SafetyGate     SafetyGateDoc  `json:"safety_gate" yaml:"safety_gate"`
}

// #endregion bundle

// #region definitions

// DefaultsDoc holds optional starting values for axis/module state.
type DefaultsDoc struct {
	Score      *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Evidence   *float64 `json:"evidence,omitempty" yaml:"evidence,omitempty" validate:"omitempty,gte=0"`
	Level      *int     `json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,gte=0,lte=3"`
}

// ThresholdsDoc overrides the confidence bucket edges of a definition.
type ThresholdsDoc struct {
	Low    *float64 `json:"low,omitempty" yaml:"low,omitempty"`
	Medium *float64 `json:"medium,omitempty" yaml:"medium,omitempty"`
	High   *float64 `json:"high,omitempty" yaml:"high,omitempty"`
}

// ResultDoc carries result-screen parameters; only thresholds matter to the engine.
type ResultDoc struct {
	ConfidenceThresholds *ThresholdsDoc `json:"confidence_thresholds,omitempty" yaml:"confidence_thresholds,omitempty"`
}

// ConflictDoc tunes conflict detection for one axis.
type ConflictDoc struct {
	Penalty     *float64 `json:"penalty,omitempty" yaml:"penalty,omitempty" validate:"omitempty,gte=0,lte=1"`
	StrongDelta *float64 `json:"strong_delta,omitempty" yaml:"strong_delta,omitempty" validate:"omitempty,gt=0"`
	Window      *int     `json:"window,omitempty" yaml:"window,omitempty" validate:"omitempty,gte=1"`
}

type AxisDoc struct {
	ID       string       `json:"id" yaml:"id" validate:"required"`
	Label    string       `json:"label,omitempty" yaml:"label,omitempty"`
	Defaults DefaultsDoc  `json:"defaults" yaml:"defaults"`
	Result   ResultDoc    `json:"result" yaml:"result"`
	Conflict *ConflictDoc `json:"conflict,omitempty" yaml:"conflict,omitempty"`
}

type ModuleDoc struct {
	ID       string      `json:"id" yaml:"id" validate:"required"`
	Label    string      `json:"label,omitempty" yaml:"label,omitempty"`
	Levels   int         `json:"levels,omitempty" yaml:"levels,omitempty" validate:"omitempty,eq=4"`
	Defaults DefaultsDoc `json:"defaults" yaml:"defaults"`
	Result   ResultDoc   `json:"result" yaml:"result"`
}

type ModeDoc struct {
	ID      string     `json:"id" yaml:"id" validate:"required"`
	Label   string     `json:"label,omitempty" yaml:"label,omitempty"`
	Default *ModeValue `json:"default,omitempty" yaml:"default,omitempty"`
}

type SafetyTagDoc struct {
	ID      string   `json:"id" yaml:"id" validate:"required"`
	Label   string   `json:"label,omitempty" yaml:"label,omitempty"`
	Group   string   `json:"group,omitempty" yaml:"group,omitempty"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// SafetyGateDoc lists safety-tag groups that stay blocked until the
// respondent has completed safety configuration.
type SafetyGateDoc struct {
	SensitiveGroups []string `json:"sensitive_groups,omitempty" yaml:"sensitive_groups,omitempty"`
}

type StopDoc struct {
	MinQuestions      *int     `json:"min_questions,omitempty" yaml:"min_questions,omitempty" validate:"omitempty,gte=0"`
	MaxQuestions      *int     `json:"max_questions,omitempty" yaml:"max_questions,omitempty" validate:"omitempty,gte=0"`
	TargetMargin      *float64 `json:"target_margin,omitempty" yaml:"target_margin,omitempty"`
	MinAxisConfidence *float64 `json:"min_axis_confidence,omitempty" yaml:"min_axis_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type AxisPairDoc struct {
	Pair []string `json:"pair" yaml:"pair" validate:"len=2"`
}

type ClarifyDoc struct {
	MinPercent    *float64 `json:"min_percent,omitempty" yaml:"min_percent,omitempty"`
	MaxDiff       *float64 `json:"max_diff,omitempty" yaml:"max_diff,omitempty"`
	MinMultiplier *float64 `json:"min_multiplier,omitempty" yaml:"min_multiplier,omitempty"`
	MaxMultiplier *float64 `json:"max_multiplier,omitempty" yaml:"max_multiplier,omitempty"`
}

type PreconfigDoc struct {
	AxisPairs []AxisPairDoc `json:"axis_pairs,omitempty" yaml:"axis_pairs,omitempty" validate:"dive"`
	Clarify   ClarifyDoc    `json:"clarify" yaml:"clarify"`
}

// #endregion definitions

// #region questions

// Effects is the change set attached to a choice option or slider range.
type Effects struct {
	AxisDeltas        map[string]float64   `json:"axis_deltas,omitempty" yaml:"axis_deltas,omitempty"`
	AxisEvidence      map[string]float64   `json:"axis_evidence,omitempty" yaml:"axis_evidence,omitempty"`
	ModuleDeltaLevels map[string]int       `json:"module_delta_levels,omitempty" yaml:"module_delta_levels,omitempty"`
	SetModuleLevel    map[string]int       `json:"set_module_level,omitempty" yaml:"set_module_level,omitempty"`
	ModuleEvidence    map[string]float64   `json:"module_evidence,omitempty" yaml:"module_evidence,omitempty"`
	SetModes          map[string]ModeValue `json:"set_modes,omitempty" yaml:"set_modes,omitempty"`
	SetTags           []string             `json:"set_tags,omitempty" yaml:"set_tags,omitempty"`
	UnsetTags         []string             `json:"unset_tags,omitempty" yaml:"unset_tags,omitempty"`
}

type RequiresDoc struct {
	MinAsked          *int                 `json:"min_asked,omitempty" yaml:"min_asked,omitempty"`
	AxesConfidenceLT  map[string]float64   `json:"axes_confidence_lt,omitempty" yaml:"axes_confidence_lt,omitempty"`
	AxesConfidenceGTE map[string]float64   `json:"axes_confidence_gte,omitempty" yaml:"axes_confidence_gte,omitempty"`
	TagsAll           []string             `json:"tags_all,omitempty" yaml:"tags_all,omitempty"`
	TagsAny           []string             `json:"tags_any,omitempty" yaml:"tags_any,omitempty"`
	Modes             map[string]ModeValue `json:"modes,omitempty" yaml:"modes,omitempty"`
}

type ForbidsDoc struct {
	TagsAny []string             `json:"tags_any,omitempty" yaml:"tags_any,omitempty"`
	Modes   map[string]ModeValue `json:"modes,omitempty" yaml:"modes,omitempty"`
}

type EligibilityDoc struct {
	Requires RequiresDoc `json:"requires" yaml:"requires"`
	Forbids  ForbidsDoc  `json:"forbids" yaml:"forbids"`
}

type CooldownDoc struct {
	Questions int `json:"questions" yaml:"questions" validate:"gte=0"`
}

type VeilDoc struct {
	Prompt  string            `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Help    string            `json:"help,omitempty" yaml:"help,omitempty"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
	Labels  *VeilLabelsDoc    `json:"labels,omitempty" yaml:"labels,omitempty"`
}

type VeilLabelsDoc struct {
	Min string `json:"min,omitempty" yaml:"min,omitempty"`
	Max string `json:"max,omitempty" yaml:"max,omitempty"`
}

type OptionDoc struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	ContentTags []string `json:"content_tags,omitempty" yaml:"content_tags,omitempty"`
	Effects     Effects  `json:"effects" yaml:"effects"`
}

type SliderDoc struct {
	Min      *float64          `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64          `json:"max,omitempty" yaml:"max,omitempty"`
	Step     float64           `json:"step,omitempty" yaml:"step,omitempty"`
	MinLabel string            `json:"min_label,omitempty" yaml:"min_label,omitempty"`
	MaxLabel string            `json:"max_label,omitempty" yaml:"max_label,omitempty"`
	Labels   map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

type RangeDoc struct {
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

type RangeEffectsDoc struct {
	Range   RangeDoc `json:"range" yaml:"range"`
	Effects Effects  `json:"effects" yaml:"effects"`
}

type PolicyDoc struct {
	Pool []string `json:"pool,omitempty" yaml:"pool,omitempty"`
}

type WhenDoc struct {
	OptionIDIn []string `json:"option_id_in,omitempty" yaml:"option_id_in,omitempty"`
}

type FollowupDoc struct {
	When   WhenDoc   `json:"when" yaml:"when"`
	Policy PolicyDoc `json:"policy" yaml:"policy"`
}

type RangeFollowupDoc struct {
	Range  RangeDoc  `json:"range" yaml:"range"`
	Policy PolicyDoc `json:"policy" yaml:"policy"`
}

// QuestionDoc is the flat authored shape of every question variant.
// Build narrows it into the Choice/Slider/Safety union.
type QuestionDoc struct {
	ID               string             `json:"id" yaml:"id" validate:"required"`
	Type             string             `json:"type" yaml:"type" validate:"required,oneof=choice slider safety"`
	Prompt           string             `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Help             string             `json:"help,omitempty" yaml:"help,omitempty"`
	Tags             []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
	ContentTags      []string           `json:"content_tags,omitempty" yaml:"content_tags,omitempty"`
	Eligibility      EligibilityDoc     `json:"eligibility" yaml:"eligibility"`
	Cooldown         *CooldownDoc       `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
	FatigueCost      float64            `json:"fatigue_cost,omitempty" yaml:"fatigue_cost,omitempty" validate:"gte=0"`
	VeilVariants     *VeilDoc           `json:"veil_variants,omitempty" yaml:"veil_variants,omitempty"`
	Options          []OptionDoc        `json:"options,omitempty" yaml:"options,omitempty" validate:"dive"`
	Slider           *SliderDoc         `json:"slider,omitempty" yaml:"slider,omitempty"`
	EffectsByRange   []RangeEffectsDoc  `json:"effects_by_range,omitempty" yaml:"effects_by_range,omitempty"`
	Followups        []FollowupDoc      `json:"followups,omitempty" yaml:"followups,omitempty"`
	FollowupsByRange []RangeFollowupDoc `json:"followups_by_range,omitempty" yaml:"followups_by_range,omitempty"`
}

// #endregion questions
