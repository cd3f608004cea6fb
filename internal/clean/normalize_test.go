package clean_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kurskal/internal/clean"
	"kurskal/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		cfg     clean.NormalizerConfig
		want    model.NormalizedLabel
	}{
		{
			name:    "moment field without code",
			summary: "Program: BSc Biomedicine Kurs.grp: X Moment:Introduction to Hematology Aktivitetstyp: Lecture",
			want:    model.NormalizedLabel{Code: "", Moment: "Introduction to Hematology"},
		},
		{
			name:    "moment field with code token",
			summary: "BMA451 Kurs.grp: BMA-H24 Moment: Hematologi Aktivitetstyp: Undervisning",
			want:    model.NormalizedLabel{Code: "BMA451", Moment: "Hematologi"},
		},
		{
			name:    "first code wins without preference",
			summary: "Tentamen BMA201 BMA451",
			want:    model.NormalizedLabel{Code: "BMA201", Moment: "Tentamen BMA451"},
		},
		{
			name:    "preferred code wins over first match",
			summary: "Tentamen BMA201 BMA451",
			cfg:     clean.NormalizerConfig{PreferredCode: "BMA451"},
			want:    model.NormalizedLabel{Code: "BMA451", Moment: "Tentamen BMA201"},
		},
		{
			name:    "long-form program name fallback",
			summary: "Introduktion Biomedicinska analytikerprogrammet",
			cfg: clean.NormalizerConfig{
				ProgramCodes: []clean.ProgramCode{
					{Name: "Biomedicinska analytikerprogrammet", Code: "BMA451"},
				},
			},
			want: model.NormalizedLabel{Code: "BMA451", Moment: "Introduktion Biomedicinska analytikerprogrammet"},
		},
		{
			name:    "noise token stripped",
			summary: "Föreläsning [Obligatorisk]",
			cfg:     clean.NormalizerConfig{NoiseTokens: []string{"[Obligatorisk]"}},
			want:    model.NormalizedLabel{Code: "", Moment: "Föreläsning"},
		},
		{
			name:    "no structure at all",
			summary: "  Självstudier  ",
			want:    model.NormalizedLabel{Code: "", Moment: "Självstudier"},
		},
		{
			name:    "already normalized title",
			summary: "BMA451: Hematologi",
			want:    model.NormalizedLabel{Code: "BMA451", Moment: "Hematologi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clean.Normalize(tt.summary, tt.cfg)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Running the pipeline twice on its own output must not mangle it
// further: normalizing a composed title yields the same label.
func TestNormalizeIdempotent(t *testing.T) {
	cfg := clean.NormalizerConfig{
		NoiseTokens:   []string{"[Obligatorisk]"},
		PreferredCode: "BMA451",
		ProgramCodes: []clean.ProgramCode{
			{Name: "Biomedicinska analytikerprogrammet", Code: "BMA451"},
		},
	}

	summaries := []string{
		"Program: BSc Biomedicine Kurs.grp: X Moment:Introduction to Hematology Aktivitetstyp: Lecture",
		"BMA451 Kurs.grp: BMA-H24 Moment: Hematologi Aktivitetstyp: Undervisning",
		"Tentamen BMA201 BMA451",
		"Introduktion Biomedicinska analytikerprogrammet",
		"Föreläsning [Obligatorisk]",
		"Självstudier",
	}

	for _, summary := range summaries {
		first := clean.Normalize(summary, cfg)
		second := clean.Normalize(first.Title(), cfg)
		assert.Equal(t, first, second, "summary %q", summary)
	}
}
