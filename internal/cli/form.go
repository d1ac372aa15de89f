package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Veraticus/seguros/internal/model"
)

// ClientForm asks for every client field, offering current as defaults.
// The CPF is only asked when current has none.
func (p *Prompter) ClientForm(ctx context.Context, current model.Client) (model.Client, error) {
	c := current
	var err error

	if c.CPF == "" {
		var raw string
		raw, err = p.AskValid(ctx, "CPF", "", func(s string) error {
			if !model.NormalizeCPF(s).Valid() {
				return fmt.Errorf("CPF deve ter %d dígitos", model.CPFLength)
			}
			return nil
		})
		if err != nil {
			return model.Client{}, err
		}
		c.CPF = model.NormalizeCPF(raw)
	}

	if c.Name, err = p.AskRequired(ctx, "Nome", current.Name); err != nil {
		return model.Client{}, err
	}
	birth, err := p.AskValid(ctx, "Data de nascimento (dd/mm/aaaa)", string(current.BirthDate), validDate)
	if err != nil {
		return model.Client{}, err
	}
	c.BirthDate = model.Date(birth)
	if c.Address, err = p.Ask(ctx, "Endereço", current.Address); err != nil {
		return model.Client{}, err
	}
	if c.Phone, err = p.Ask(ctx, "Telefone", current.Phone); err != nil {
		return model.Client{}, err
	}
	c.Email, err = p.AskValid(ctx, "Email", current.Email, func(s string) error {
		if s != "" && !(model.Client{Email: s}).ValidateEmail() {
			return fmt.Errorf("email inválido")
		}
		return nil
	})
	if err != nil {
		return model.Client{}, err
	}
	return c.Normalized(), nil
}

func validDate(s string) error {
	if !model.Date(s).Valid() {
		return fmt.Errorf("data inválida, use dd/mm/aaaa")
	}
	return nil
}

// DateField asks for a dd/mm/yyyy date.
func (p *Prompter) DateField(ctx context.Context, label string, def model.Date) (model.Date, error) {
	s, err := p.AskValid(ctx, label+" (dd/mm/aaaa)", string(def), validDate)
	return model.Date(s), err
}

// CoverageForm asks for the fields of the payload of type t. When current
// has the same type its values are the defaults.
func (p *Prompter) CoverageForm(ctx context.Context, t model.CoverageType, current model.Coverage) (model.Coverage, error) {
	switch t {
	case model.CoverageAuto:
		cur, _ := current.(model.AutoCoverage)
		return p.autoForm(ctx, cur)
	case model.CoverageResidential:
		cur, _ := current.(model.ResidentialCoverage)
		return p.residentialForm(ctx, cur)
	case model.CoverageLife:
		cur, _ := current.(model.LifeCoverage)
		return p.lifeForm(ctx, cur)
	}
	return nil, fmt.Errorf("%w: unknown coverage type %q", model.ErrValidation, t)
}

func orFirst(v string, options []string) string {
	if v != "" {
		return v
	}
	return options[0]
}

func (p *Prompter) autoForm(ctx context.Context, cur model.AutoCoverage) (model.Coverage, error) {
	a := cur
	var err error
	if a.Brand, err = p.AskRequired(ctx, "Marca", cur.Brand); err != nil {
		return nil, err
	}
	if a.Model, err = p.AskRequired(ctx, "Modelo", cur.Model); err != nil {
		return nil, err
	}
	if a.Year, err = p.AskValid(ctx, "Ano", cur.Year, validYear); err != nil {
		return nil, err
	}
	if a.Plate, err = p.AskRequired(ctx, "Placa", cur.Plate); err != nil {
		return nil, err
	}
	if a.Condition, err = p.Choose(ctx, "Estado de conservação", model.VehicleConditions, orFirst(cur.Condition, model.VehicleConditions)); err != nil {
		return nil, err
	}
	if a.Usage, err = p.Choose(ctx, "Uso principal", model.VehicleUsages, orFirst(cur.Usage, model.VehicleUsages)); err != nil {
		return nil, err
	}
	if a.Drivers, err = p.Ask(ctx, "Condutores (separar por vírgula)", cur.Drivers); err != nil {
		return nil, err
	}
	return a, nil
}

func validYear(s string) error {
	if s == "" {
		return nil
	}
	if year, err := strconv.Atoi(s); err != nil || year < 1900 || year > 9999 {
		return fmt.Errorf("ano inválido")
	}
	return nil
}

func amount(s string) error {
	if s == "" {
		return nil
	}
	_, err := model.ParseAmount(s)
	return err
}

func (p *Prompter) residentialForm(ctx context.Context, cur model.ResidentialCoverage) (model.Coverage, error) {
	r := cur
	var err error
	if r.PropertyAddress, err = p.AskRequired(ctx, "Endereço do imóvel", cur.PropertyAddress); err != nil {
		return nil, err
	}
	if r.BuiltArea, err = p.AskValid(ctx, "Área construída (m²)", cur.BuiltArea, amount); err != nil {
		return nil, err
	}
	if r.MarketValue, err = p.AskValid(ctx, "Valor venal (R$)", cur.MarketValue, amount); err != nil {
		return nil, err
	}
	if r.Construction, err = p.Choose(ctx, "Tipo de construção", model.ConstructionTypes, orFirst(cur.Construction, model.ConstructionTypes)); err != nil {
		return nil, err
	}
	if r.ExtraCoverages, err = p.Ask(ctx, "Coberturas adicionais (separar por vírgula)", cur.ExtraCoverages); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *Prompter) lifeForm(ctx context.Context, cur model.LifeCoverage) (model.Coverage, error) {
	l := cur
	var err error
	if l.Beneficiaries, err = p.AskRequired(ctx, "Beneficiários (separar por vírgula)", cur.Beneficiaries); err != nil {
		return nil, err
	}
	if l.Death, err = p.Confirm(ctx, "Cobertura por morte?", cur.Death); err != nil {
		return nil, err
	}
	if l.Disability, err = p.Confirm(ctx, "Invalidez permanente?", cur.Disability); err != nil {
		return nil, err
	}
	if l.CriticalIllness, err = p.Confirm(ctx, "Doenças graves?", cur.CriticalIllness); err != nil {
		return nil, err
	}
	if l.Funeral, err = p.Confirm(ctx, "Assistência funeral?", cur.Funeral); err != nil {
		return nil, err
	}
	return l, nil
}
