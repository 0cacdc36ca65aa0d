// Package detect implements the rule-based currency detection used on text
// extracted from receipts. Cues accumulate and raise confidence; a currency
// symbol claim is never silently overridden by a lower-priority cue.
package detect

import "strings"

// ConfirmationThreshold is the confidence below which callers should require
// human confirmation before trusting the detected currency.
const ConfirmationThreshold = 0.75

// Result is the outcome of a detection pass.
type Result struct {
	Code       string   `json:"code"`
	Confidence float64  `json:"confidence"`
	Cues       []string `json:"cues"`
}

// NeedsConfirmation reports whether the detection is too weak to act on
// without asking the user.
func (r Result) NeedsConfirmation() bool {
	return r.Confidence < ConfirmationThreshold
}

// Detect scores free text against currency cues: the S/ symbol, Peruvian tax
// identifiers, the +51 phone prefix, and the euro symbol. With no cues at all
// the answer is USD at low confidence.
func Detect(text string) Result {
	r := Result{Code: "USD", Confidence: 0.5, Cues: []string{}}
	penSymbol := false

	if strings.Contains(text, "S/") || strings.Contains(text, "S/.") {
		r.Code = "PEN"
		r.Confidence = 0.9
		penSymbol = true
		r.Cues = append(r.Cues, "Símbolo S/ detectado")
	}

	if strings.Contains(text, "IGV") || strings.Contains(text, "RUC") {
		if r.Code == "PEN" {
			r.Confidence = capConfidence(r.Confidence + 0.2)
		} else {
			r.Code = "PEN"
			r.Confidence = 0.7
		}
		r.Cues = append(r.Cues, "Términos peruanos (IGV/RUC) detectados")
	}

	if strings.Contains(text, "+51") {
		if r.Code == "PEN" {
			r.Confidence = capConfidence(r.Confidence + 0.1)
		} else {
			r.Code = "PEN"
			r.Confidence = 0.6
		}
		r.Cues = append(r.Cues, "Código telefónico peruano (+51) detectado")
	}

	if strings.Contains(text, "€") {
		if !penSymbol {
			r.Code = "EUR"
			r.Confidence = 0.9
			r.Cues = append(r.Cues, "Símbolo € detectado")
		} else {
			// The euro cue is recorded but the sol symbol keeps priority.
			r.Cues = append(r.Cues, "Símbolo € detectado pero S/ tiene prioridad")
		}
	}

	return r
}

func capConfidence(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
