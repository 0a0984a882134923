package services

import (
	"strings"

	"github.com/medpal/docextract/internal/models"
)

// ObjectFilter selects the object keys the pipeline handles.
type ObjectFilter struct {
	Prefix   string
	Suffixes []string
}

// Accept reports whether key lies under the prefix and ends with one of the
// suffixes. Suffixes are compared case-insensitively.
func (f ObjectFilter) Accept(key string) bool {
	if !strings.HasPrefix(key, f.Prefix) || strings.HasSuffix(key, "/") {
		return false
	}
	if len(f.Suffixes) == 0 {
		return true
	}
	lower := strings.ToLower(key)
	for _, s := range f.Suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// Split partitions refs into accepted ones, in input order, and the number skipped.
func (f ObjectFilter) Split(refs []models.ObjectRef) ([]models.ObjectRef, int) {
	accepted := make([]models.ObjectRef, 0, len(refs))
	for _, ref := range refs {
		if f.Accept(ref.Key) {
			accepted = append(accepted, ref)
		}
	}
	return accepted, len(refs) - len(accepted)
}

// TriggerFromGCSEvent turns a storage finalize event into a one-object trigger.
func TriggerFromGCSEvent(e models.GCSEvent) models.TriggerEvent {
	return models.TriggerEvent{Objects: []models.ObjectRef{{Container: e.Bucket, Key: e.Name}}}
}
