package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTag(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase passthrough", "global", "global"},
		{"uppercase", "Urgent", "urgent"},
		{"whitespace to underscore", "physical phenomenon", "physical_phenomenon"},
		{"multiple spaces collapse", "human   origin", "human_origin"},
		{"hyphen dropped", "human-origin", "humanorigin"},
		{"mixed punctuation", "CO2 (emissions)!", "co2_emissions"},
		{"leading and trailing space", "  climate  ", "climate"},
		{"already normalized", "climate_change", "climate_change"},
		{"empty", "", ""},
		{"only punctuation", "!?.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTag(tt.in))
		})
	}
}

func TestSanitizeTag_Idempotent(t *testing.T) {
	inputs := []string{
		"Climate Change",
		"human-origin",
		"  Physical  Phenomenon  ",
		"co2_emissions",
		"ÉNERGIE solaire",
		"",
	}
	for _, in := range inputs {
		once := SanitizeTag(in)
		assert.Equal(t, once, SanitizeTag(once), "sanitize must be idempotent for %q", in)
	}
}

func TestNormalizeName(t *testing.T) {
	// Hyperlink extraction and the scoring provider disagree on formatting;
	// both sides must reduce to the same key
	assert.Equal(t, normalizeName("Climate_change"), normalizeName("climate change"))
	assert.Equal(t, normalizeName("Greenhouse effect"), normalizeName("Greenhouse_Effect"))
	assert.Equal(t, "albedo", normalizeName("Albedo!"))
	assert.NotEqual(t, normalizeName("Albedo"), normalizeName("Reflectivity"))
}
