package model

import "strings"

// ClaimStatus is the review state of a claim.
type ClaimStatus string

// Claim statuses.
const (
	ClaimUnderReview ClaimStatus = "Em Análise"
	ClaimApproved    ClaimStatus = "Aprovado"
	ClaimDenied      ClaimStatus = "Negado"
)

// ClaimStatuses lists every status in display order.
func ClaimStatuses() []ClaimStatus {
	return []ClaimStatus{ClaimUnderReview, ClaimApproved, ClaimDenied}
}

// Valid reports whether s is a known status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimUnderReview, ClaimApproved, ClaimDenied:
		return true
	}
	return false
}

// Claim is an incident reported against a policy.
type Claim struct {
	PolicyNumber PolicyNumber `json:"numero_apolice"`
	Date         Date         `json:"data_sinistro"`
	Description  string       `json:"descricao_sinistro"`
	Status       ClaimStatus  `json:"status_sinistro"`
}

// ValidateOccurrence reports whether the claim date falls inside the policy
// window, both ends included.
func (c Claim) ValidateOccurrence(p Policy) bool {
	at, err := c.Date.Time()
	if err != nil {
		return false
	}
	start, err := p.Start.Time()
	if err != nil {
		return false
	}
	end, err := p.End.Time()
	if err != nil {
		return false
	}
	return !at.Before(start) && !at.After(end)
}

// Validate checks the claim against the policy it refers to.
func (c Claim) Validate(p Policy) error {
	if c.PolicyNumber != p.Number {
		return invalid("numero_apolice", "claim refers to policy %s, not %s", c.PolicyNumber, p.Number)
	}
	if !c.Date.Valid() {
		return invalid("data_sinistro", "%q is not a dd/mm/yyyy date", c.Date)
	}
	if !c.ValidateOccurrence(p) {
		return invalid("data_sinistro", "%s is outside the policy period %s to %s", c.Date, p.Start, p.End)
	}
	if strings.TrimSpace(c.Description) == "" {
		return invalid("descricao_sinistro", "description is required")
	}
	if !c.Status.Valid() {
		return invalid("status_sinistro", "unknown status %q", c.Status)
	}
	return nil
}
