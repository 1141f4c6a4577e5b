package models

import "fmt"

// ValidationKind selects how a recorded value is judged against its expectation
type ValidationKind string

const (
	ValidationKindYesNo   ValidationKind = "yes_no"  // boolean equality
	ValidationKindNumeric ValidationKind = "numeric" // inclusive numeric range
	ValidationKindNone    ValidationKind = "none"    // completion only
)

// Classification is the outcome of evaluating a value against an expectation
type Classification string

const (
	ClassificationPassing       Classification = "passing"
	ClassificationFailing       Classification = "failing"
	ClassificationWarning       Classification = "warning" // numeric value above max
	ClassificationMisconfigured Classification = "misconfigured"
	ClassificationPendingResult Classification = "pending_result"
	ClassificationUnknown       Classification = "unknown"
)

// Expectation is the tagged variant describing what a task or sub-task expects.
// Only the payload matching Kind is meaningful; constructors keep the others empty.
type Expectation struct {
	Kind    ValidationKind `json:"kind"`
	Boolean *bool          `json:"expected_boolean,omitempty"`
	Min     *float64       `json:"expected_min,omitempty"`
	Max     *float64       `json:"expected_max,omitempty"`
	Unit    string         `json:"unit,omitempty"`
}

// ExpectYesNo builds a boolean-equality expectation
func ExpectYesNo(expected bool) Expectation {
	return Expectation{Kind: ValidationKindYesNo, Boolean: &expected}
}

// ExpectRange builds an inclusive numeric-range expectation
func ExpectRange(min, max float64, unit string) Expectation {
	return Expectation{Kind: ValidationKindNumeric, Min: &min, Max: &max, Unit: unit}
}

// ExpectCompletion builds a completion-only expectation
func ExpectCompletion() Expectation {
	return Expectation{Kind: ValidationKindNone}
}

// Normalize drops payload fields that do not belong to Kind
func (e Expectation) Normalize() Expectation {
	switch e.Kind {
	case ValidationKindYesNo:
		return Expectation{Kind: e.Kind, Boolean: e.Boolean}
	case ValidationKindNumeric:
		return Expectation{Kind: e.Kind, Min: e.Min, Max: e.Max, Unit: e.Unit}
	case ValidationKindNone:
		return Expectation{Kind: e.Kind}
	default:
		return e
	}
}

// Configured reports whether the payload required by Kind is present and coherent
func (e Expectation) Configured() bool {
	switch e.Kind {
	case ValidationKindYesNo:
		return e.Boolean != nil
	case ValidationKindNumeric:
		return e.Min != nil && e.Max != nil && *e.Min <= *e.Max
	case ValidationKindNone:
		return true
	default:
		return false
	}
}

// Validate checks an expectation supplied by a caller (template or task setup).
// Stored data may still be misconfigured; Evaluate reports that separately.
func (e Expectation) Validate() error {
	switch e.Kind {
	case ValidationKindYesNo:
		if e.Boolean == nil {
			return NewValidationError("expected_boolean", "required for yes_no validation")
		}
		if e.Min != nil || e.Max != nil {
			return NewValidationError("expected_range", "must be empty for yes_no validation")
		}
	case ValidationKindNumeric:
		if e.Min == nil || e.Max == nil {
			return NewValidationError("expected_range", "min and max are required for numeric validation")
		}
		if *e.Min > *e.Max {
			return NewValidationError("expected_range", fmt.Sprintf("min %g is greater than max %g", *e.Min, *e.Max))
		}
		if e.Boolean != nil {
			return NewValidationError("expected_boolean", "must be empty for numeric validation")
		}
	case ValidationKindNone:
		if e.Boolean != nil || e.Min != nil || e.Max != nil {
			return NewValidationError("expectation", "completion-only validation takes no expected value")
		}
	default:
		return NewValidationError("kind", fmt.Sprintf("unknown validation kind %q", e.Kind))
	}
	return nil
}

// Measurement is a recorded answer. At most one field is set, matching the validation kind.
type Measurement struct {
	Boolean *bool    `json:"boolean_value,omitempty"`
	Numeric *float64 `json:"numeric_value,omitempty"`
}

// Empty reports whether nothing was recorded
func (m Measurement) Empty() bool {
	return m.Boolean == nil && m.Numeric == nil
}

// ForKind keeps only the field relevant to kind, forcing the other to nil
func (m Measurement) ForKind(kind ValidationKind) Measurement {
	switch kind {
	case ValidationKindYesNo:
		return Measurement{Boolean: m.Boolean}
	case ValidationKindNumeric:
		return Measurement{Numeric: m.Numeric}
	default:
		return Measurement{}
	}
}

// Evaluate judges a measurement against an expectation. It has no side effects.
//
// Completion-only expectations ignore the value and always evaluate as passing; whether
// the owning item is done is decided by its status, not here.
func Evaluate(e Expectation, m Measurement) Classification {
	switch e.Kind {
	case ValidationKindNone:
		return ClassificationPassing
	case ValidationKindYesNo:
		if e.Boolean == nil {
			return ClassificationMisconfigured
		}
		if m.Boolean == nil {
			return ClassificationPendingResult
		}
		if *m.Boolean == *e.Boolean {
			return ClassificationPassing
		}
		return ClassificationFailing
	case ValidationKindNumeric:
		if !e.Configured() {
			return ClassificationMisconfigured
		}
		if m.Numeric == nil {
			return ClassificationPendingResult
		}
		v := *m.Numeric
		switch {
		case v > *e.Max:
			// high readings escalate softer than low ones
			return ClassificationWarning
		case v < *e.Min:
			return ClassificationFailing
		default:
			return ClassificationPassing
		}
	default:
		return ClassificationUnknown
	}
}

// IsPassing reports whether the measurement satisfies the expectation
func (e Expectation) IsPassing(m Measurement) bool {
	return Evaluate(e, m) == ClassificationPassing
}

// ValidateMeasurement checks that a caller supplied the value a kind requires
func ValidateMeasurement(kind ValidationKind, m Measurement) error {
	switch kind {
	case ValidationKindYesNo:
		if m.Boolean == nil {
			return NewValidationError("boolean_value", "required for yes_no validation")
		}
	case ValidationKindNumeric:
		if m.Numeric == nil {
			return NewValidationError("numeric_value", "required for numeric validation")
		}
	case ValidationKindNone:
	default:
		return NewValidationError("kind", fmt.Sprintf("unknown validation kind %q", kind))
	}
	return nil
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool { return &b }

// FloatPtr returns a pointer to f
func FloatPtr(f float64) *float64 { return &f }
