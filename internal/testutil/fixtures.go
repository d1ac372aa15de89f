package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/seguros/internal/model"
)

// Known CPFs with valid check digits.
const (
	CPFAna   model.CPF = "52998224725"
	CPFBruno model.CPF = "11144477735"
	CPFCarla model.CPF = "12345678909"
)

// NewClient returns a valid client with the given CPF and name.
func NewClient(cpf model.CPF, name string) model.Client {
	return model.Client{
		CPF:       cpf,
		Name:      name,
		BirthDate: "02/03/1990",
		Address:   "Rua das Flores, 10",
		Phone:     "11 99999-0000",
		Email:     "cliente@example.com",
	}
}

// PolicyBuilder builds valid policies with a fluent API.
//
// Example:
//
//	p := testutil.NewPolicy(1, testutil.CPFAna).Auto().Value("50000").Build()
type PolicyBuilder struct {
	policy model.Policy
}

// NewPolicy starts an active life policy for 2024.
func NewPolicy(number model.PolicyNumber, cpf model.CPF) *PolicyBuilder {
	return &PolicyBuilder{policy: model.Policy{
		Number:       number,
		ClientCPF:    cpf,
		Type:         model.CoverageLife,
		Status:       model.StatusActive,
		Start:        "01/01/2024",
		End:          "31/12/2024",
		InsuredValue: decimal.NewFromInt(100000),
		Coverage:     model.LifeCoverage{Beneficiaries: "Beneficiário", Death: true},
	}}
}

// Auto switches the policy to vehicle insurance.
func (b *PolicyBuilder) Auto() *PolicyBuilder {
	b.policy.Type = model.CoverageAuto
	b.policy.Coverage = model.AutoCoverage{Brand: "Fiat", Model: "Uno", Year: "2015", Plate: "ABC1D23"}
	return b
}

// Residential switches the policy to home insurance.
func (b *PolicyBuilder) Residential() *PolicyBuilder {
	b.policy.Type = model.CoverageResidential
	b.policy.Coverage = model.ResidentialCoverage{PropertyAddress: "Rua das Flores, 10", Construction: "Alvenaria"}
	return b
}

// Value sets the insured value from a decimal string.
func (b *PolicyBuilder) Value(v string) *PolicyBuilder {
	b.policy.InsuredValue = decimal.RequireFromString(v)
	return b
}

// Between sets the policy term.
func (b *PolicyBuilder) Between(start, end model.Date) *PolicyBuilder {
	b.policy.Start = start
	b.policy.End = end
	return b
}

// Status sets the policy status.
func (b *PolicyBuilder) Status(s model.PolicyStatus) *PolicyBuilder {
	b.policy.Status = s
	return b
}

// Cancelled marks the policy cancelled on the given date.
func (b *PolicyBuilder) Cancelled(on model.Date, reason string) *PolicyBuilder {
	b.policy.Status = model.StatusCancelled
	b.policy.CancelledOn = on
	b.policy.CancelReason = reason
	return b
}

// Build returns the policy.
func (b *PolicyBuilder) Build() model.Policy {
	return b.policy
}

// NewClaim returns a claim under review for the policy.
func NewClaim(number model.PolicyNumber, on model.Date, status model.ClaimStatus) model.Claim {
	return model.Claim{
		PolicyNumber: number,
		Date:         on,
		Description:  "Sinistro de teste",
		Status:       status,
	}
}
