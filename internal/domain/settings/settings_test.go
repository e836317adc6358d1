package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_Apply(t *testing.T) {
	s := Settings{SiteName: "MABEL NASKI", Address: "Jl. Lama"}
	addr := "  Jl. Kayu Jati No. 7 "
	wa := "0812-3456-7890"

	s.Apply(Patch{Address: &addr, WhatsAppNumber: &wa})

	assert.Equal(t, "MABEL NASKI", s.SiteName)
	assert.Equal(t, "Jl. Kayu Jati No. 7", s.Address)
	assert.Equal(t, "0812-3456-7890", s.WhatsAppNumber)
}

func TestSettings_ReceiptHeader(t *testing.T) {
	h := Settings{Address: "Jl. Jati", Phone: "021-555"}.ReceiptHeader()
	assert.Equal(t, "MABEL NASKI", h.StoreName)
	assert.Equal(t, "Furniture & Interior", h.Tagline)
	assert.Equal(t, "Jl. Jati", h.Address)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"0812-3456-7890":   "6281234567890",
		"+62 812 3456 789": "628123456789",
		"6281234567890":    "6281234567890",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}
