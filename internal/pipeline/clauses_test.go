package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"rfq/internal"
)

const (
	floorSingular = "Golv i hissar ska vara av typ {}."
	floorGrouped  = "Hissar med beteckning {} skall ha golv av typ {}."
	floorPassive  = "Hissar med beteckning {} skall ha lokalt golv av typ [fyll i vilket golv]."
)

func TestSynthesizeSingularWhenAllAgree(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	units := []internal.Record{
		unit("a1", "flooring_material", "Granite"),
		unit("a2", "flooring_material", " Granite "),
	}

	got := s.Synthesize(units, []string{"flooring_material"}, floorSingular, floorGrouped, floorPassive)
	assert.Equal(t, []string{"Golv i hissar ska vara av typ granit."}, got)
}

func TestSynthesizeGroupsAndPassive(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	units := []internal.Record{
		unit("b1 lift", "flooring_material", "Vinyl"),
		unit("c1 lift"),
		unit("a1 lift", "flooring_material", "Vinyl"),
	}

	got := s.Synthesize(units, []string{"flooring_material"}, floorSingular, floorGrouped, floorPassive)
	assert.Equal(t, []string{
		"Hissar med beteckning A1, B1 skall ha golv av typ vinyl.",
		"Hissar med beteckning C1 skall ha lokalt golv av typ [fyll i vilket golv].",
	}, got)
}

func TestSynthesizeOmitsMissingWithoutPassive(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	units := []internal.Record{
		unit("a1", "flooring_material", "Vinyl"),
		unit("a2", "flooring_material", "Granite"),
		unit("a3", "flooring_material", ""),
	}

	got := s.Synthesize(units, []string{"flooring_material"}, floorSingular, floorGrouped, "")
	assert.Equal(t, []string{
		"Hissar med beteckning A1 skall ha golv av typ vinyl.",
		"Hissar med beteckning A2 skall ha golv av typ granit.",
	}, got)
}

func TestSynthesizeAllMissing(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	units := []internal.Record{unit("a1"), unit("a2")}

	assert.Empty(t, s.Synthesize(units, []string{"flooring_material"}, floorSingular, floorGrouped, ""))
	assert.Equal(t,
		[]string{"Hissar med beteckning A1, A2 skall ha lokalt golv av typ [fyll i vilket golv]."},
		s.Synthesize(units, []string{"flooring_material"}, floorSingular, floorGrouped, floorPassive))
}

func TestSynthesizeTupleKeys(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	keys := []string{"handrail_type", "handrail_material"}
	units := []internal.Record{
		unit("a1", "handrail_type", "Round", "handrail_material", "Stainless steel"),
		unit("a2", "handrail_type", "Round"),
	}

	got := s.Synthesize(units, keys,
		"Handledare skall vara {} i {}.",
		"Hissar med beteckning {} skall ha handledare {} i {}.",
		"")
	assert.Equal(t, []string{"Hissar med beteckning A1 skall ha handledare round i rostfritt stål."}, got)

	units[1]["handrail_material"] = "Stainless steel"
	got = s.Synthesize(units, keys, "Handledare skall vara {} i {}.", "unused {} {} {}", "")
	assert.Equal(t, []string{"Handledare skall vara round i rostfritt stål."}, got)
}

func TestSynthesizeKeepsCodesAtSentenceStart(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	units := []internal.Record{unit("a1", "buffer_rails_quantity", "2")}

	got := s.Synthesize(units, []string{"buffer_rails_quantity"}, "{} rad/rader med avbärarlister.", "{} har {} rader.", "")
	assert.Equal(t, []string{"2 rad/rader med avbärarlister."}, got)
}

func TestSynthesizeCasesEachArgumentAtItsPosition(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	units := []internal.Record{unit("a1", "flooring_material", "Vinyl", "wall_material", "Granite")}

	got := s.Synthesize(units, []string{"flooring_material", "wall_material"}, "Golv {}. {} i korg.", "unused", "")
	assert.Equal(t, []string{"Golv vinyl. Granit i korg."}, got)
}

func TestRenderIfAnyMatch(t *testing.T) {
	s := NewSynthesizer(testTranslations())
	units := []internal.Record{
		unit("a2 lift", "elevator_complementary_standard", "EN81-72 2020"),
		unit("b1 lift", "elevator_complementary_standard", "EN81-20"),
		unit("a1 lift", "elevator_complementary_standard", "EN81-20, EN81-72 2020"),
	}
	match := func(v string) bool { return strings.Contains(v, "EN81-72 2020") }
	template := "Hissar med beteckning {} skall vara brandbekämpningshissar enligt {}."

	text, ok := s.RenderIfAnyMatch(units, "elevator_complementary_standard", match, template, "Inga.")
	assert.True(t, ok)
	assert.Equal(t, "Hissar med beteckning A1, A2 skall vara brandbekämpningshissar enligt EN81-20, EN81-72 2020.", text)

	none := units[1:2]
	text, ok = s.RenderIfAnyMatch(none, "elevator_complementary_standard", match, template, "Inga.")
	assert.True(t, ok)
	assert.Equal(t, "Inga.", text)

	_, ok = s.RenderIfAnyMatch(none, "elevator_complementary_standard", match, template, "")
	assert.False(t, ok)
}

func TestAllMissing(t *testing.T) {
	units := []internal.Record{unit("a1", "prl", " "), unit("a2")}
	assert.True(t, AllMissing([]string{"PRL", "ebd_emergency_battery_drive"}, units))

	units = append(units, unit("a3", "ebd_emergency_battery_drive", "Yes"))
	assert.False(t, AllMissing([]string{"PRL", "ebd_emergency_battery_drive"}, units))

	assert.True(t, AllMissing([]string{"prl"}, nil))
}
