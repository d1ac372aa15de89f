package model

import "strings"

// CPFLength is the number of digits in a Brazilian taxpayer identifier.
const CPFLength = 11

// CPF is a client identifier. Stored values are always digits only.
type CPF string

// NormalizeCPF strips every non-digit from a user supplied identifier.
func NormalizeCPF(raw string) CPF {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return CPF(b.String())
}

// Normalize returns the digits-only form of c.
func (c CPF) Normalize() CPF {
	return NormalizeCPF(string(c))
}

// Valid reports whether the digits-only form has exactly 11 characters.
func (c CPF) Valid() bool {
	return len(c.Normalize()) == CPFLength
}

// HasValidCheckDigits runs the mod-11 check digit algorithm. Sequences of a
// single repeated digit are rejected.
func (c CPF) HasValidCheckDigits() bool {
	digits := c.Normalize()
	if len(digits) != CPFLength {
		return false
	}
	if strings.Count(string(digits), string(digits[0])) == CPFLength {
		return false
	}
	for pos := 9; pos < CPFLength; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(digits[i]-'0') * (pos + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != int(digits[pos]-'0') {
			return false
		}
	}
	return true
}

// Format renders the identifier as ###.###.###-##. Anything that is not a
// valid identifier is returned as is.
func (c CPF) Format() string {
	d := string(c.Normalize())
	if len(d) != CPFLength {
		return string(c)
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

func (c CPF) String() string {
	return string(c)
}
