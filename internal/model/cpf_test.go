package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPF_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   CPF
		want CPF
	}{
		{name: "formatted", in: "529.982.247-25", want: "52998224725"},
		{name: "digits only", in: "52998224725", want: "52998224725"},
		{name: "spaces and letters", in: " 529 982x247 25 ", want: "52998224725"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestCPF_Valid(t *testing.T) {
	assert.True(t, CPF("529.982.247-25").Valid())
	assert.True(t, CPF("12345678901").Valid())
	assert.False(t, CPF("1234567890").Valid())
	assert.False(t, CPF("123456789012").Valid())
	assert.False(t, CPF("").Valid())
}

func TestCPF_HasValidCheckDigits(t *testing.T) {
	tests := []struct {
		name string
		in   CPF
		want bool
	}{
		{name: "valid formatted", in: "529.982.247-25", want: true},
		{name: "valid digits", in: "11144477735", want: true},
		{name: "another valid", in: "12345678909", want: true},
		{name: "wrong check digits", in: "12345678901", want: false},
		{name: "repeated digits", in: "11111111111", want: false},
		{name: "too short", in: "5299822472", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.HasValidCheckDigits())
		})
	}
}

func TestCPF_Format(t *testing.T) {
	assert.Equal(t, "529.982.247-25", CPF("52998224725").Format())
	assert.Equal(t, "529.982.247-25", CPF("529.982.247-25").Format())
	assert.Equal(t, "123", CPF("123").Format())
}
