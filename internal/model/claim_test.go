package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaim_ValidateOccurrence(t *testing.T) {
	p := Policy{Number: 1, Start: "01/01/2024", End: "31/12/2024"}

	tests := []struct {
		name string
		date Date
		want bool
	}{
		{name: "inside", date: "15/06/2024", want: true},
		{name: "first day", date: "01/01/2024", want: true},
		{name: "last day", date: "31/12/2024", want: true},
		{name: "day before", date: "31/12/2023", want: false},
		{name: "day after", date: "01/01/2025", want: false},
		{name: "unparseable", date: "2024-06-15", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Claim{PolicyNumber: 1, Date: tt.date}
			assert.Equal(t, tt.want, c.ValidateOccurrence(p))
		})
	}
}

func TestClaim_Validate(t *testing.T) {
	p := Policy{Number: 1, Start: "01/01/2024", End: "31/12/2024"}
	valid := Claim{PolicyNumber: 1, Date: "15/06/2024", Description: "Colisão", Status: ClaimUnderReview}

	require.NoError(t, valid.Validate(p))

	wrongPolicy := valid
	wrongPolicy.PolicyNumber = 2
	assert.ErrorIs(t, wrongPolicy.Validate(p), ErrValidation)

	outside := valid
	outside.Date = "01/01/2025"
	assert.ErrorIs(t, outside.Validate(p), ErrValidation)

	noDescription := valid
	noDescription.Description = " "
	assert.ErrorIs(t, noDescription.Validate(p), ErrValidation)

	badStatus := valid
	badStatus.Status = "Pago"
	assert.ErrorIs(t, badStatus.Validate(p), ErrValidation)
}

func TestNextPolicyNumber(t *testing.T) {
	tests := []struct {
		name     string
		policies []Policy
		want     PolicyNumber
	}{
		{name: "empty", want: 1},
		{name: "sequential", policies: []Policy{{Number: 1}, {Number: 2}}, want: 3},
		{name: "gaps", policies: []Policy{{Number: 5}, {Number: 2}}, want: 6},
		{name: "only unassigned", policies: []Policy{{Number: 0}, {Number: -3}}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPolicyNumber(tt.policies))
		})
	}
}
