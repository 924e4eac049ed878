package gate

// #region safety-reason
// SafetyReason says why the safety gate blocked a question.
type SafetyReason string

const (
	ReasonPreSafetyGate SafetyReason = "pre_safety_gate"
	ReasonLine          SafetyReason = "line"
	ReasonVeilMissing   SafetyReason = "veil_missing_variants"
)

// #endregion safety-reason

// #region safety-decision
// SafetyDecision is the safety gate's verdict on one question.
// A blocked question is a normal outcome, not an error.
type SafetyDecision struct {
	Allowed bool
	Veiled  bool         // allowed, but must be shown through its veil variant
	Reason  SafetyReason // set when blocked
	Tag     string       // the content tag that triggered the block
}

// #endregion safety-decision

// #region admission
// Rejection names the first check a question failed.
type Rejection string

const (
	RejectNone        Rejection = ""
	RejectUnknown     Rejection = "unknown"
	RejectAsked       Rejection = "asked"
	RejectCooldown    Rejection = "cooldown"
	RejectEligibility Rejection = "eligibility"
	RejectSafety      Rejection = "safety"
)

// AdmitOptions tune Admit for the caller's context.
type AdmitOptions struct {
	AllowRepeat bool   // skip the asked check (mode focus)
	IgnoreAxis  string // axis exempt from confidence requirements (axis focus)
}

// Admission is the combined verdict of the asked, cooldown, eligibility and safety checks.
type Admission struct {
	Admitted  bool
	Rejection Rejection
	Safety    SafetyDecision
}

// #endregion admission
