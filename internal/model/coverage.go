package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// CoverageType selects the kind of insurance and the shape of its payload.
type CoverageType string

const (
	// CoverageAuto insures a vehicle.
	CoverageAuto CoverageType = "Automóvel"
	// CoverageResidential insures a home.
	CoverageResidential CoverageType = "Residencial"
	// CoverageLife is life insurance.
	CoverageLife CoverageType = "Vida"
)

// CoverageTypes lists the supported types in display order.
func CoverageTypes() []CoverageType {
	return []CoverageType{CoverageAuto, CoverageResidential, CoverageLife}
}

// Valid reports whether t is a supported coverage type.
func (t CoverageType) Valid() bool {
	switch t {
	case CoverageAuto, CoverageResidential, CoverageLife:
		return true
	}
	return false
}

// ParseCoverageType accepts the persisted value or a plain ascii alias.
func ParseCoverageType(s string) (CoverageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "automóvel", "automovel", "auto":
		return CoverageAuto, nil
	case "residencial", "residential", "home":
		return CoverageResidential, nil
	case "vida", "life":
		return CoverageLife, nil
	}
	return "", invalid("tipo_seguro", "unknown coverage type %q", s)
}

// Field is one entry of a coverage payload, in display order.
type Field struct {
	Key   string
	Label string
	Value string
}

// Coverage is the type specific payload of a policy.
type Coverage interface {
	Type() CoverageType
	Validate() error
	Fields() []Field
}

// Vehicle condition and usage choices.
var (
	VehicleConditions = []string{"Novo", "Semi novo", "Usado"}
	VehicleUsages     = []string{"Pessoal", "Comercial", "Misto"}
	ConstructionTypes = []string{"Alvenaria", "Madeira", "Mista"}
)

// AutoCoverage describes an insured vehicle.
type AutoCoverage struct {
	Brand     string `json:"marca,omitempty"`
	Model     string `json:"modelo,omitempty"`
	Year      string `json:"ano,omitempty"`
	Plate     string `json:"placa,omitempty"`
	Condition string `json:"estado_de_conservação,omitempty"`
	Usage     string `json:"uso_principal,omitempty"`
	Drivers   string `json:"condutores_separar_por_vírgula_se_mais_de_um,omitempty"`
}

// Type implements Coverage.
func (AutoCoverage) Type() CoverageType { return CoverageAuto }

// Validate implements Coverage.
func (a AutoCoverage) Validate() error {
	if strings.TrimSpace(a.Brand) == "" {
		return invalid("marca", "vehicle brand is required")
	}
	if strings.TrimSpace(a.Model) == "" {
		return invalid("modelo", "vehicle model is required")
	}
	if strings.TrimSpace(a.Plate) == "" {
		return invalid("placa", "vehicle plate is required")
	}
	if a.Year != "" {
		if year, err := strconv.Atoi(strings.TrimSpace(a.Year)); err != nil || year < 1900 || year > 9999 {
			return invalid("ano", "%q is not a valid year", a.Year)
		}
	}
	if a.Condition != "" && !oneOf(a.Condition, VehicleConditions) {
		return invalid("estado_de_conservação", "%q is not one of %v", a.Condition, VehicleConditions)
	}
	if a.Usage != "" && !oneOf(a.Usage, VehicleUsages) {
		return invalid("uso_principal", "%q is not one of %v", a.Usage, VehicleUsages)
	}
	return nil
}

// Fields implements Coverage.
func (a AutoCoverage) Fields() []Field {
	return []Field{
		{Key: "marca", Label: "Marca", Value: a.Brand},
		{Key: "modelo", Label: "Modelo", Value: a.Model},
		{Key: "ano", Label: "Ano", Value: a.Year},
		{Key: "placa", Label: "Placa", Value: a.Plate},
		{Key: "estado_de_conservação", Label: "Estado de Conservação", Value: a.Condition},
		{Key: "uso_principal", Label: "Uso Principal", Value: a.Usage},
		{Key: "condutores_separar_por_vírgula_se_mais_de_um", Label: "Condutores", Value: a.Drivers},
	}
}

// ResidentialCoverage describes an insured property.
type ResidentialCoverage struct {
	PropertyAddress string `json:"endereço_do_imóvel,omitempty"`
	BuiltArea       string `json:"área_construída_m²,omitempty"`
	MarketValue     string `json:"valor_venal_r$,omitempty"`
	Construction    string `json:"tipo_de_construção,omitempty"`
	ExtraCoverages  string `json:"coberturas_adicionais_separar_por_vírgula,omitempty"`
}

// Type implements Coverage.
func (ResidentialCoverage) Type() CoverageType { return CoverageResidential }

// Validate implements Coverage.
func (r ResidentialCoverage) Validate() error {
	if strings.TrimSpace(r.PropertyAddress) == "" {
		return invalid("endereço_do_imóvel", "property address is required")
	}
	if r.BuiltArea != "" {
		if _, err := ParseAmount(r.BuiltArea); err != nil {
			return invalid("área_construída_m²", "%q must be a positive number", r.BuiltArea)
		}
	}
	if r.MarketValue != "" {
		if _, err := ParseAmount(r.MarketValue); err != nil {
			return invalid("valor_venal_r$", "%q must be a positive number", r.MarketValue)
		}
	}
	if r.Construction != "" && !oneOf(r.Construction, ConstructionTypes) {
		return invalid("tipo_de_construção", "%q is not one of %v", r.Construction, ConstructionTypes)
	}
	return nil
}

// Fields implements Coverage.
func (r ResidentialCoverage) Fields() []Field {
	return []Field{
		{Key: "endereço_do_imóvel", Label: "Endereço do Imóvel", Value: r.PropertyAddress},
		{Key: "área_construída_m²", Label: "Área Construída (m²)", Value: r.BuiltArea},
		{Key: "valor_venal_r$", Label: "Valor Venal (R$)", Value: r.MarketValue},
		{Key: "tipo_de_construção", Label: "Tipo de Construção", Value: r.Construction},
		{Key: "coberturas_adicionais_separar_por_vírgula", Label: "Coberturas Adicionais", Value: r.ExtraCoverages},
	}
}

// LifeCoverage lists beneficiaries and the contracted protections.
type LifeCoverage struct {
	Beneficiaries   string `json:"beneficiários_separar_por_vírgula,omitempty"`
	Death           bool   `json:"morte_var"`
	Disability      bool   `json:"invalidez_permanente_var"`
	CriticalIllness bool   `json:"doenças_graves_var"`
	Funeral         bool   `json:"assistência_funeral_var"`
}

// Type implements Coverage.
func (LifeCoverage) Type() CoverageType { return CoverageLife }

// Validate implements Coverage.
func (l LifeCoverage) Validate() error {
	if strings.TrimSpace(l.Beneficiaries) == "" {
		return invalid("beneficiários_separar_por_vírgula", "at least one beneficiary is required")
	}
	return nil
}

// Fields implements Coverage.
func (l LifeCoverage) Fields() []Field {
	return []Field{
		{Key: "beneficiários_separar_por_vírgula", Label: "Beneficiários", Value: l.Beneficiaries},
		{Key: "morte_var", Label: "Morte", Value: yesNo(l.Death)},
		{Key: "invalidez_permanente_var", Label: "Invalidez Permanente", Value: yesNo(l.Disability)},
		{Key: "doenças_graves_var", Label: "Doenças Graves", Value: yesNo(l.CriticalIllness)},
		{Key: "assistência_funeral_var", Label: "Assistência Funeral", Value: yesNo(l.Funeral)},
	}
}

// DecodeCoverage decodes a dados_especificos payload into the struct for t.
func DecodeCoverage(t CoverageType, raw json.RawMessage) (Coverage, error) {
	var target Coverage
	switch t {
	case CoverageAuto:
		var c AutoCoverage
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		target = c
	case CoverageResidential:
		var c ResidentialCoverage
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		target = c
	case CoverageLife:
		var c LifeCoverage
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		target = c
	default:
		return nil, fmt.Errorf("unknown coverage type %q", t)
	}
	return target, nil
}

// ParseAmount reads a positive number written either as 1234.56 or in the
// Brazilian form 1.234,56.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("valor", "%q is not a number", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, invalid("valor", "%s must be positive", d)
	}
	return d, nil
}

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
