package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustCase(t *testing.T) {
	cases := []struct {
		name        string
		surrounding string
		candidate   string
		want        string
	}{
		{name: "sentence start", surrounding: "{}", candidate: "vinyl", want: "Vinyl"},
		{name: "mid sentence", surrounding: "Golv av typ {}.", candidate: "Vinyl", want: "vinyl"},
		{name: "after full stop", surrounding: "Klart. {} gäller.", candidate: "rostfritt stål", want: "Rostfritt stål"},
		{name: "after colon", surrounding: "Material: {}", candidate: "Granit", want: "Granit"},
		{name: "code with digits", surrounding: "Typ {}.", candidate: "HR64", want: "HR64"},
		{name: "unit label", surrounding: "Hissar med beteckning {} har", candidate: "A1, A2", want: "A1, A2"},
		{name: "acronym prefix", surrounding: "Tak med {}.", candidate: "LED-belysning", want: "LED-belysning"},
		{name: "acronym word", surrounding: "Plåt i {}.", candidate: "AISI 441", want: "AISI 441"},
		{name: "all caps", surrounding: "Tak med {}.", candidate: "ÅÄÖ", want: "ÅÄÖ"},
		{name: "swedish initial", surrounding: "Golv av {}.", candidate: "Ädelträ", want: "ädelträ"},
		{name: "empty", surrounding: "Typ {}.", candidate: "", want: ""},
		{name: "no letters", surrounding: "Typ {}.", candidate: "1000", want: "1000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AdjustCase(tc.surrounding, "{}", tc.candidate))
		})
	}
}

func TestAdjustCaseMarkerMissingUsesWholeText(t *testing.T) {
	assert.Equal(t, "vinyl", AdjustCase("Golv av typ", "{{x}}", "Vinyl"))
	assert.Equal(t, "Vinyl", AdjustCase("Slut. ", "{{x}}", "vinyl"))
}

func TestStartsSentence(t *testing.T) {
	assert.True(t, StartsSentence(""))
	assert.True(t, StartsSentence("   "))
	assert.True(t, StartsSentence("Det är klart. "))
	assert.True(t, StartsSentence("Varför? "))
	assert.True(t, StartsSentence("Rubrik\n"))
	assert.False(t, StartsSentence("Golv av typ "))
	assert.False(t, StartsSentence("Golv av typ"))
}

func TestCaseAfter(t *testing.T) {
	assert.Equal(t, "Granit", CaseAfter("Golv {}. ", "granit"))
	assert.Equal(t, "granit", CaseAfter("Golv {}. Vägg av ", "Granit"))
	assert.Equal(t, "LED-belysning", CaseAfter("Tak med ", "LED-belysning"))
	assert.Equal(t, "", CaseAfter("", ""))
}
