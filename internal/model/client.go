package model

import (
	"errors"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Client is a policy holder.
type Client struct {
	CPF       CPF    `json:"cpf"`
	Name      string `json:"nome"`
	BirthDate Date   `json:"data_nascimento"`
	Address   string `json:"endereco"`
	Phone     string `json:"telefone"`
	Email     string `json:"email"`
}

// ValidateIdentifier reports whether the CPF has 11 digits.
func (c Client) ValidateIdentifier() bool {
	return c.CPF.Valid()
}

// ValidateEmail reports whether the email looks like local@domain.tld.
func (c Client) ValidateEmail() bool {
	return emailPattern.MatchString(strings.TrimSpace(c.Email))
}

// ValidateBirthDate reports whether the birth date parses as dd/mm/yyyy.
func (c Client) ValidateBirthDate() bool {
	return c.BirthDate.Valid()
}

// Validate checks every client field. Email is optional but must be well
// formed when present. With strict set the CPF check digits are verified too.
func (c Client) Validate(strict bool) error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, invalid("nome", "name is required"))
	}
	switch {
	case !c.ValidateIdentifier():
		errs = append(errs, invalid("cpf", "%q must contain %d digits", c.CPF, CPFLength))
	case strict && !c.CPF.HasValidCheckDigits():
		errs = append(errs, invalid("cpf", "%q has invalid check digits", c.CPF))
	}
	if !c.ValidateBirthDate() {
		errs = append(errs, invalid("data_nascimento", "%q is not a dd/mm/yyyy date", c.BirthDate))
	}
	if strings.TrimSpace(c.Email) != "" && !c.ValidateEmail() {
		errs = append(errs, invalid("email", "%q is not a valid address", c.Email))
	}
	return errors.Join(errs...)
}

// Normalized returns a copy with the CPF reduced to digits and text fields trimmed.
func (c Client) Normalized() Client {
	c.CPF = c.CPF.Normalize()
	c.Name = strings.TrimSpace(c.Name)
	c.BirthDate = Date(strings.TrimSpace(string(c.BirthDate)))
	c.Address = strings.TrimSpace(c.Address)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	return c
}
