package catalog

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// #region mode-value

// ModeValue is a normalized tri-state (or free-form categorical) mode value.
type ModeValue string

const (
	ModeTrue    ModeValue = "true"
	ModeFalse   ModeValue = "false"
	ModeUnknown ModeValue = "unknown"
)

// NormalizeMode folds the truthy/falsy spellings used by content authors
// into ModeTrue/ModeFalse and missing values into ModeUnknown.
// Any other value, the empty string included, is kept verbatim.
func NormalizeMode(v any) ModeValue {
	switch x := v.(type) {
	case nil:
		return ModeUnknown
	case bool:
		if x {
			return ModeTrue
		}
		return ModeFalse
	case ModeValue:
		return normalizeModeString(string(x))
	case string:
		return normalizeModeString(x)
	default:
		return ModeValue(fmt.Sprint(x))
	}
}

func normalizeModeString(s string) ModeValue {
	switch s {
	case "true", "yes":
		return ModeTrue
	case "false", "no":
		return ModeFalse
	}
	return ModeValue(s)
}

// Matches reports whether two mode values are equal after normalization.
func (m ModeValue) Matches(other ModeValue) bool {
	return NormalizeMode(m) == NormalizeMode(other)
}

// IsUnknown reports whether the value normalizes to ModeUnknown.
func (m ModeValue) IsUnknown() bool {
	return NormalizeMode(m) == ModeUnknown
}

// UnmarshalJSON accepts booleans, strings, numbers and null.
func (m *ModeValue) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("mode value: %w", err)
	}
	*m = NormalizeMode(v)
	return nil
}

// UnmarshalYAML accepts booleans, strings, numbers and null.
func (m *ModeValue) UnmarshalYAML(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("mode value: %w", err)
	}
	*m = NormalizeMode(v)
	return nil
}

// #endregion mode-value
