package model

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func init() {
	// valor_assegurado is a JSON number in every file.
	decimal.MarshalJSONWithoutQuotes = true
}

// PolicyStatus is the lifecycle state of a policy.
type PolicyStatus string

// Policy statuses. StatusCancelled is terminal.
const (
	StatusActive    PolicyStatus = "Ativa"
	StatusInactive  PolicyStatus = "Inativa"
	StatusPending   PolicyStatus = "Pendente"
	StatusCancelled PolicyStatus = "Cancelada"
)

// PolicyStatuses lists every status in display order.
func PolicyStatuses() []PolicyStatus {
	return []PolicyStatus{StatusActive, StatusInactive, StatusPending, StatusCancelled}
}

// Valid reports whether s is a known status.
func (s PolicyStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// PolicyNumber identifies a policy. Older files sometimes stored it as a
// string; those decode when they hold an integer and become zero otherwise.
type PolicyNumber int

// UnmarshalJSON accepts an integer or a quoted integer.
func (n *PolicyNumber) UnmarshalJSON(data []byte) error {
	*n = 0
	s := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	*n = PolicyNumber(v)
	return nil
}

// Assigned reports whether n is a usable positive number.
func (n PolicyNumber) Assigned() bool {
	return n > 0
}

func (n PolicyNumber) String() string {
	return strconv.Itoa(int(n))
}

// ParsePolicyNumber reads a number given on the command line.
func ParsePolicyNumber(s string) (PolicyNumber, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return 0, invalid("numero_apolice", "%q is not a policy number", s)
	}
	return PolicyNumber(v), nil
}

// Policy is an insurance contract held by a client.
type Policy struct {
	Number       PolicyNumber    `json:"numero_apolice"`
	ClientCPF    CPF             `json:"cpf_cliente"`
	Type         CoverageType    `json:"tipo_seguro"`
	Status       PolicyStatus    `json:"status_apolice"`
	Start        Date            `json:"data_inicio_apolice,omitempty"`
	End          Date            `json:"data_fim_apolice,omitempty"`
	InsuredValue decimal.Decimal `json:"-"`
	CancelledOn  Date            `json:"data_cancelamento,omitempty"`
	CancelReason string          `json:"motivo_cancelamento,omitempty"`

	// Coverage holds dados_especificos decoded according to Type.
	Coverage Coverage `json:"-"`

	// rawCoverage keeps a payload that could not be decoded so saving the
	// collection does not lose it.
	rawCoverage json.RawMessage
}

type policyAlias Policy

// policyJSON carries valor_assegurado as a pointer so a zero value, which
// no valid policy has, is left out of the file.
type policyJSON struct {
	policyAlias
	InsuredValue *decimal.Decimal `json:"valor_assegurado,omitempty"`
	Specific     json.RawMessage  `json:"dados_especificos"`
}

// MarshalJSON writes the coverage payload under dados_especificos.
func (p Policy) MarshalJSON() ([]byte, error) {
	out := policyJSON{policyAlias: policyAlias(p)}
	if !p.InsuredValue.IsZero() {
		value := p.InsuredValue
		out.InsuredValue = &value
	}
	switch {
	case p.Coverage != nil:
		raw, err := json.Marshal(p.Coverage)
		if err != nil {
			return nil, err
		}
		out.Specific = raw
	case len(p.rawCoverage) > 0:
		out.Specific = p.rawCoverage
	default:
		out.Specific = json.RawMessage("{}")
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes dados_especificos into the struct matching tipo_seguro.
// Payloads of an unknown type or shape are kept raw.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var in policyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Policy(in.policyAlias)
	if in.InsuredValue != nil {
		p.InsuredValue = *in.InsuredValue
	}
	p.Coverage = nil
	p.rawCoverage = nil
	raw := bytes.TrimSpace(in.Specific)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if c, err := DecodeCoverage(p.Type, raw); err == nil {
		p.Coverage = c
		return nil
	}
	p.rawCoverage = append(json.RawMessage(nil), raw...)
	return nil
}

// ValidateDateRange reports whether both dates parse and end is after start.
func (p Policy) ValidateDateRange() bool {
	start, err := p.Start.Time()
	if err != nil {
		return false
	}
	end, err := p.End.Time()
	if err != nil {
		return false
	}
	return end.After(start)
}

// Validate checks the policy fields and its coverage payload.
func (p Policy) Validate() error {
	if !p.Type.Valid() {
		return invalid("tipo_seguro", "unknown coverage type %q", p.Type)
	}
	if !p.Status.Valid() {
		return invalid("status_apolice", "unknown status %q", p.Status)
	}
	if !p.ClientCPF.Valid() {
		return invalid("cpf_cliente", "%q must contain %d digits", p.ClientCPF, CPFLength)
	}
	if !p.Start.Valid() {
		return invalid("data_inicio_apolice", "%q is not a dd/mm/yyyy date", p.Start)
	}
	if !p.End.Valid() {
		return invalid("data_fim_apolice", "%q is not a dd/mm/yyyy date", p.End)
	}
	if !p.ValidateDateRange() {
		return invalid("data_fim_apolice", "end date %s must be after start date %s", p.End, p.Start)
	}
	if !p.InsuredValue.IsPositive() {
		return invalid("valor_assegurado", "insured value must be positive, got %s", p.InsuredValue)
	}
	if p.Coverage == nil {
		return invalid("dados_especificos", "coverage details are required")
	}
	if p.Coverage.Type() != p.Type {
		return invalid("dados_especificos", "%s details given for a %s policy", p.Coverage.Type(), p.Type)
	}
	return p.Coverage.Validate()
}

// Cancelled reports whether the policy reached its terminal state.
func (p Policy) Cancelled() bool {
	return p.Status == StatusCancelled
}

// Cancel marks the policy cancelled on the given date.
func (p *Policy) Cancel(on Date, reason string) error {
	if p.Cancelled() {
		return ErrPolicyCancelled
	}
	p.Status = StatusCancelled
	p.CancelledOn = on
	p.CancelReason = reason
	return nil
}

// WithRawCoverage returns a copy of p carrying an undecoded payload. It is
// used when importing records whose payload shape is unknown.
func (p Policy) WithRawCoverage(raw json.RawMessage) Policy {
	p.Coverage = nil
	p.rawCoverage = append(json.RawMessage(nil), raw...)
	return p
}

// RawCoverage returns the undecoded payload, if any.
func (p Policy) RawCoverage() json.RawMessage {
	return p.rawCoverage
}

// CoverageFields returns the payload as ordered key/value pairs. Undecoded
// payloads are flattened from their raw JSON object.
func (p Policy) CoverageFields() []Field {
	if p.Coverage != nil {
		return p.Coverage.Fields()
	}
	if len(p.rawCoverage) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(p.rawCoverage, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Label: k, Value: stringify(m[k])})
	}
	return fields
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return yesNo(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
