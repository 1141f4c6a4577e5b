package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		expectation Expectation
		measurement Measurement
		want        Classification
	}{
		{
			name:        "yes_no equal",
			expectation: ExpectYesNo(true),
			measurement: Measurement{Boolean: BoolPtr(true)},
			want:        ClassificationPassing,
		},
		{
			name:        "yes_no different",
			expectation: ExpectYesNo(true),
			measurement: Measurement{Boolean: BoolPtr(false)},
			want:        ClassificationFailing,
		},
		{
			name:        "yes_no expecting false",
			expectation: ExpectYesNo(false),
			measurement: Measurement{Boolean: BoolPtr(false)},
			want:        ClassificationPassing,
		},
		{
			name:        "yes_no null value",
			expectation: ExpectYesNo(true),
			want:        ClassificationPendingResult,
		},
		{
			name:        "yes_no missing expected",
			expectation: Expectation{Kind: ValidationKindYesNo},
			measurement: Measurement{Boolean: BoolPtr(true)},
			want:        ClassificationMisconfigured,
		},
		{
			name:        "numeric in range",
			expectation: ExpectRange(10, 20, "bar"),
			measurement: Measurement{Numeric: FloatPtr(15)},
			want:        ClassificationPassing,
		},
		{
			name:        "numeric at min",
			expectation: ExpectRange(10, 20, "bar"),
			measurement: Measurement{Numeric: FloatPtr(10)},
			want:        ClassificationPassing,
		},
		{
			name:        "numeric at max",
			expectation: ExpectRange(10, 20, "bar"),
			measurement: Measurement{Numeric: FloatPtr(20)},
			want:        ClassificationPassing,
		},
		{
			// above max is a warning, below min a failure
			name:        "numeric above max",
			expectation: ExpectRange(10, 20, "bar"),
			measurement: Measurement{Numeric: FloatPtr(25)},
			want:        ClassificationWarning,
		},
		{
			name:        "numeric below min",
			expectation: ExpectRange(10, 20, "bar"),
			measurement: Measurement{Numeric: FloatPtr(5)},
			want:        ClassificationFailing,
		},
		{
			name:        "numeric missing max",
			expectation: Expectation{Kind: ValidationKindNumeric, Min: FloatPtr(1)},
			measurement: Measurement{Numeric: FloatPtr(5)},
			want:        ClassificationMisconfigured,
		},
		{
			name:        "numeric inverted range",
			expectation: Expectation{Kind: ValidationKindNumeric, Min: FloatPtr(20), Max: FloatPtr(10)},
			measurement: Measurement{Numeric: FloatPtr(15)},
			want:        ClassificationMisconfigured,
		},
		{
			name:        "numeric null value",
			expectation: ExpectRange(10, 20, ""),
			want:        ClassificationPendingResult,
		},
		{
			name:        "none ignores value",
			expectation: ExpectCompletion(),
			measurement: Measurement{Boolean: BoolPtr(false)},
			want:        ClassificationPassing,
		},
		{
			name:        "unknown kind",
			expectation: Expectation{Kind: "photo"},
			want:        ClassificationUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expectation, tt.measurement))
		})
	}
}

func TestExpectationValidate(t *testing.T) {
	tests := []struct {
		name        string
		expectation Expectation
		wantErr     bool
	}{
		{name: "yes_no", expectation: ExpectYesNo(true)},
		{name: "numeric", expectation: ExpectRange(1, 2, "mm")},
		{name: "numeric single point", expectation: ExpectRange(2, 2, "mm")},
		{name: "none", expectation: ExpectCompletion()},
		{name: "yes_no without value", expectation: Expectation{Kind: ValidationKindYesNo}, wantErr: true},
		{name: "yes_no with range", expectation: Expectation{Kind: ValidationKindYesNo, Boolean: BoolPtr(true), Min: FloatPtr(1)}, wantErr: true},
		{name: "numeric min above max", expectation: ExpectRange(3, 2, ""), wantErr: true},
		{name: "numeric with boolean", expectation: Expectation{Kind: ValidationKindNumeric, Min: FloatPtr(1), Max: FloatPtr(2), Boolean: BoolPtr(true)}, wantErr: true},
		{name: "none with value", expectation: Expectation{Kind: ValidationKindNone, Boolean: BoolPtr(true)}, wantErr: true},
		{name: "unknown kind", expectation: Expectation{Kind: "text"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expectation.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpectationNormalize(t *testing.T) {
	e := Expectation{Kind: ValidationKindYesNo, Boolean: BoolPtr(true), Min: FloatPtr(1), Max: FloatPtr(2), Unit: "mm"}
	n := e.Normalize()
	assert.NotNil(t, n.Boolean)
	assert.Nil(t, n.Min)
	assert.Nil(t, n.Max)
	assert.Empty(t, n.Unit)
}

func TestMeasurementForKind(t *testing.T) {
	m := Measurement{Boolean: BoolPtr(true), Numeric: FloatPtr(3)}

	assert.Nil(t, m.ForKind(ValidationKindYesNo).Numeric)
	assert.Nil(t, m.ForKind(ValidationKindNumeric).Boolean)
	assert.True(t, m.ForKind(ValidationKindNone).Empty())
}
