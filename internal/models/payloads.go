package models

// These structs define the JSON payloads accepted and returned by the
// processing functions.

// ObjectRef names one uploaded object. IdempotencyKey is optional; when set,
// repeated triggers with the same key resolve to the same record.
type ObjectRef struct {
	Container      string `json:"containerRef"`
	Key            string `json:"objectKey"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// TriggerEvent is the input of the batch processor.
type TriggerEvent struct {
	Objects []ObjectRef `json:"objects"`
}

// GCSEvent is the data payload of a storage object finalize CloudEvent.
type GCSEvent struct {
	Bucket      string            `json:"bucket"`
	Name        string            `json:"name"`
	ContentType string            `json:"contentType,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Summary is the per-document outcome returned to callers.
type Summary struct {
	DocumentID      string        `json:"documentId"`
	Status          string        `json:"status"`
	SourceKey       string        `json:"sourceKey"`
	TextPreview     string        `json:"textPreview,omitempty"`
	DocumentType    string        `json:"documentType,omitempty"`
	Confidence      float64       `json:"confidence"`
	TotalLines      int           `json:"totalLines"`
	TotalPages      int           `json:"totalPages"`
	QualityScore    string        `json:"qualityScore,omitempty"`
	MedicalKeywords []EntityMatch `json:"medicalKeywords,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// BatchResponse is the output of the batch processor. Skipped counts objects
// filtered out by prefix or suffix.
type BatchResponse struct {
	Status    string    `json:"status"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Results   []Summary `json:"results"`
}
