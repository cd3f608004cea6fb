package clean

import (
	"regexp"
	"strings"

	"kurskal/internal/model"
)

// NormalizerConfig carries the static tables that steer title
// normalization. All fields are read-only inputs.
type NormalizerConfig struct {
	// NoiseTokens are literal administrative labels removed from the
	// summary wherever they occur, before field extraction.
	NoiseTokens []string

	// PreferredCode wins when a summary lists several code tokens.
	PreferredCode string

	// ProgramCodes maps long-form program-name substrings to short codes.
	// Consulted in order, first match wins, and only when no code token
	// was found directly in the summary.
	ProgramCodes []ProgramCode
}

// ProgramCode is one entry of the long-form-name fallback table.
type ProgramCode struct {
	Name string
	Code string
}

var (
	// codeTokenRe matches a course/activity code: three uppercase letters
	// followed by three or four digits, e.g. "BMA451".
	codeTokenRe = regexp.MustCompile(`[A-Z]{3}[0-9]{3,4}`)

	// fieldLabelRe matches a capitalized colon-terminated field label in a
	// source summary, e.g. "Moment:", "Kurs.grp:", "Aktivitetstyp:".
	// Digits are deliberately excluded so code prefixes like "BMA451:" are
	// not mistaken for field labels.
	fieldLabelRe = regexp.MustCompile(`[A-ZÅÄÖ][A-Za-zÅÄÖåäö.]*:`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// Normalize parses a raw summary into a structured label. The rules run
// in priority order and each short-circuits on match:
//
//  1. strip configured noise tokens
//  2. extract the "Moment:" field value (ends at the next capitalized
//     field label or end of string)
//  3. extract a code token from the original summary, preferring the
//     configured code when several are present
//  4. fall back to the long-form program-name table
//
// Normalization never drops an event: with no recognizable structure the
// whole cleaned summary becomes the moment text with an empty code.
// Normalizing an already-normalized title is a no-op.
func Normalize(summary string, cfg NormalizerConfig) model.NormalizedLabel {
	cleaned := summary
	for _, tok := range cfg.NoiseTokens {
		if tok != "" {
			cleaned = strings.ReplaceAll(cleaned, tok, "")
		}
	}

	moment := fieldValue(cleaned, "Moment")
	if moment == "" {
		moment = cleaned
	}

	code := extractCode(summary, cfg.PreferredCode)
	if code == "" {
		code = programCode(summary, cfg.ProgramCodes)
	}

	if code != "" {
		// Remove the chosen code (and a trailing colon) from the moment
		// text so composing "CODE: moment" stays idempotent.
		moment = strings.ReplaceAll(moment, code+":", "")
		moment = strings.ReplaceAll(moment, code, "")
	}
	moment = strings.TrimSpace(spaceRe.ReplaceAllString(moment, " "))

	return model.NormalizedLabel{Code: code, Moment: moment}
}

// fieldValue extracts the value of a colon-terminated field. The value
// runs from the end of the label to the start of the next capitalized
// field label, or the end of the string.
func fieldValue(s, label string) string {
	locs := fieldLabelRe.FindAllStringIndex(s, -1)
	for i, loc := range locs {
		got := strings.TrimSuffix(s[loc[0]:loc[1]], ":")
		if got != label {
			continue
		}
		end := len(s)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		return strings.TrimSpace(s[loc[1]:end])
	}
	return ""
}

// extractCode scans the summary for code tokens. When several candidates
// exist and the preferred code is among them, the preferred code wins;
// otherwise the first match is used.
func extractCode(summary, preferred string) string {
	matches := codeTokenRe.FindAllString(summary, -1)
	if len(matches) == 0 {
		return ""
	}
	if preferred != "" {
		for _, m := range matches {
			if m == preferred {
				return preferred
			}
		}
	}
	return matches[0]
}

// programCode consults the ordered long-form-name table; the first entry
// whose name appears in the summary supplies the code.
func programCode(summary string, table []ProgramCode) string {
	for _, entry := range table {
		if entry.Name != "" && strings.Contains(summary, entry.Name) {
			return entry.Code
		}
	}
	return ""
}

// containsFold reports whether s contains sub, ignoring case.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
