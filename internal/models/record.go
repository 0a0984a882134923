package models

// Processing status values stored on a ResultRecord.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusDuplicate = "duplicate"
)

// EntityMatch is one medical keyword hit with the text surrounding its first occurrence.
type EntityMatch struct {
	Category string `firestore:"category" json:"category"`
	Keyword  string `firestore:"keyword" json:"keyword"`
	Context  string `firestore:"context" json:"context"`
}

// ResultRecord is the document written to the record store once per pipeline run.
// Records are never updated; a re-run produces a new record with a new DocumentID.
// Failure records leave the success payload empty and set ProcessingStatus and ErrorMessage.
type ResultRecord struct {
	DocumentID       string        `firestore:"documentId" json:"documentId"`
	Filename         string        `firestore:"filename" json:"filename"`
	ExtractedText    string        `firestore:"extractedText,omitempty" json:"extractedText,omitempty"`
	DocumentType     string        `firestore:"documentType,omitempty" json:"documentType,omitempty"`
	Confidence       float64       `firestore:"confidence" json:"confidence"`
	TotalLines       int           `firestore:"totalLines" json:"totalLines"`
	TotalPages       int           `firestore:"totalPages" json:"totalPages"`
	FileSize         int64         `firestore:"fileSize" json:"fileSize"`
	ContentType      string        `firestore:"contentType,omitempty" json:"contentType,omitempty"`
	FileHash         string        `firestore:"fileHash,omitempty" json:"fileHash,omitempty"`
	SourceContainer  string        `firestore:"sourceContainer" json:"sourceContainer"`
	SourceKey        string        `firestore:"sourceKey" json:"sourceKey"`
	CreatedAt        string        `firestore:"createdAt" json:"createdAt"`
	ProcessingEngine string        `firestore:"processingEngine" json:"processingEngine"`
	ProcessingStatus string        `firestore:"processingStatus" json:"processingStatus"`
	QualityScore     string        `firestore:"qualityScore,omitempty" json:"qualityScore,omitempty"`
	MedicalKeywords  []EntityMatch `firestore:"medicalKeywords,omitempty" json:"medicalKeywords,omitempty"`
	IdempotencyKey   string        `firestore:"idempotencyKey,omitempty" json:"idempotencyKey,omitempty"`
	ErrorMessage     string        `firestore:"errorMessage,omitempty" json:"errorMessage,omitempty"`
}

// Failed reports whether the record describes a failed run.
func (r *ResultRecord) Failed() bool {
	return r.ProcessingStatus == StatusFailed
}
