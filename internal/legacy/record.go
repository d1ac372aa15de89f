// Package legacy splits the single-file seguros.json layout into the
// per-entity files.
package legacy

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/seguros/internal/model"
)

// ClientFields are the client keys of a legacy record. They decode on their
// own so a record with a broken policy still yields its client.
type ClientFields struct {
	CPF       *string `json:"cpf"`
	Name      *string `json:"nome"`
	BirthDate *string `json:"data_nascimento"`
	Address   *string `json:"endereco"`
	Phone     *string `json:"telefone"`
	Email     *string `json:"email"`
}

// Record is one entry of seguros.json: a client, optionally a policy and
// optionally a claim, flattened together. Absent keys decode to nil.
type Record struct {
	ClientFields
	Number       *model.PolicyNumber  `json:"numero_apolice"`
	Type         *string              `json:"tipo_seguro"`
	Status       *string              `json:"status_apolice"`
	Start        *string              `json:"data_inicio_apolice"`
	End          *string              `json:"data_fim_apolice"`
	InsuredValue *decimal.NullDecimal `json:"valor_assegurado"`
	Specific     json.RawMessage      `json:"dados_especificos"`
	CancelledOn  *string              `json:"data_cancelamento"`
	CancelReason *string              `json:"motivo_cancelamento"`
	ClaimDate    *string              `json:"data_sinistro"`
	ClaimText    *string              `json:"descricao_sinistro"`
	ClaimStatus  *string              `json:"status_sinistro"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// HasPolicy reports whether the record carries a policy number at all.
func (r Record) HasPolicy() bool {
	return r.Number != nil
}

// HasClaim reports whether the record carries a claim.
func (r Record) HasClaim() bool {
	return strings.TrimSpace(str(r.ClaimDate)) != ""
}

// Client extracts the client part.
func (r ClientFields) Client() model.Client {
	return model.Client{
		CPF:       model.NormalizeCPF(str(r.CPF)),
		Name:      str(r.Name),
		BirthDate: model.Date(str(r.BirthDate)),
		Address:   str(r.Address),
		Phone:     str(r.Phone),
		Email:     str(r.Email),
	}
}

// Policy extracts the policy part. The status defaults to active and an
// absent payload becomes an empty object.
func (r Record) Policy() model.Policy {
	p := model.Policy{
		ClientCPF:    model.NormalizeCPF(str(r.CPF)),
		Type:         model.CoverageType(str(r.Type)),
		Status:       model.StatusActive,
		Start:        model.Date(str(r.Start)),
		End:          model.Date(str(r.End)),
		CancelledOn:  model.Date(str(r.CancelledOn)),
		CancelReason: str(r.CancelReason),
	}
	if r.Number != nil {
		p.Number = *r.Number
	}
	if r.Status != nil && *r.Status != "" {
		p.Status = model.PolicyStatus(*r.Status)
	}
	if r.InsuredValue != nil && r.InsuredValue.Valid {
		p.InsuredValue = r.InsuredValue.Decimal
	}

	raw := bytes.TrimSpace(r.Specific)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	if c, err := model.DecodeCoverage(p.Type, raw); err == nil {
		p.Coverage = c
		return p
	}
	return p.WithRawCoverage(raw)
}

// Claim extracts the claim part for the given policy number.
func (r Record) Claim(number model.PolicyNumber) model.Claim {
	return model.Claim{
		PolicyNumber: number,
		Date:         model.Date(str(r.ClaimDate)),
		Description:  str(r.ClaimText),
		Status:       model.ClaimStatus(str(r.ClaimStatus)),
	}
}
