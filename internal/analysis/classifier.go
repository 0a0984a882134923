package analysis

import "strings"

// Document type labels.
const (
	TypeLabResult        = "lab_result"
	TypePrescription     = "prescription"
	TypeImagingReport    = "imaging_report"
	TypeDischargeSummary = "discharge_summary"
	TypeConsultationNote = "consultation_note"
	TypeSurgicalReport   = "surgical_report"
	TypeMedicalDocument  = "medical_document"
	TypeDocument         = "document"
)

type classRule struct {
	keywords []string
	label    string
	weight   float64
}

// classRules is evaluated in order; earlier rules win ties.
var classRules = []classRule{
	{[]string{"laboratory", "lab result", "test result", "glucose", "cholesterol", "hemoglobin", "white blood cell"}, TypeLabResult, 3},
	{[]string{"prescription", "medication", "pharmacy", "rx", "dosage", "tablets", "take with food"}, TypePrescription, 3},
	{[]string{"x-ray", "mri", "ct scan", "ultrasound", "radiology", "imaging", "mammogram"}, TypeImagingReport, 3},
	{[]string{"discharge", "hospital", "admission", "summary", "patient care"}, TypeDischargeSummary, 2},
	{[]string{"consultation", "clinic note", "follow up", "examination", "vital signs"}, TypeConsultationNote, 2},
	{[]string{"surgery", "operation", "procedure", "surgical", "operative"}, TypeSurgicalReport, 2},
	{[]string{"medical", "patient", "doctor", "clinic", "health", "diagnosis"}, TypeMedicalDocument, 1},
}

// Classification is the document type chosen for a text.
type Classification struct {
	DocumentType        string
	MatchedKeywordCount int
}

// Classify picks the label whose weighted keyword match ratio is highest.
// Text without any rule keyword is labelled TypeDocument.
func Classify(text string) Classification {
	best := Classification{DocumentType: TypeDocument}
	if text == "" {
		return best
	}
	lower := strings.ToLower(text)

	bestScore := 0.0
	for _, rule := range classRules {
		matched := 0
		for _, kw := range rule.keywords {
			if containsTerm(lower, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := rule.weight * float64(matched) / float64(len(rule.keywords))
		if score > bestScore {
			bestScore = score
			best = Classification{DocumentType: rule.label, MatchedKeywordCount: matched}
		}
	}
	return best
}
