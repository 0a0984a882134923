package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal/docextract/internal/models"
)

func TestDecodeTrigger(t *testing.T) {
	event, err := DecodeTrigger([]byte(`{"objects":[{"containerRef":"b","objectKey":"uploads/a.pdf","idempotencyKey":"k1"},{"objectKey":"uploads/b.pdf"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []models.ObjectRef{
		{Container: "b", Key: "uploads/a.pdf", IdempotencyKey: "k1"},
		{Key: "uploads/b.pdf"},
	}, event.Objects)

	event, err = DecodeTrigger([]byte(`{"objects":[]}`))
	require.NoError(t, err)
	assert.Empty(t, event.Objects)
}

func TestDecodeTrigger_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"objects":`,
		"missing objects": `{}`,
		"empty key":       `{"objects":[{"objectKey":""}]}`,
		"missing key":     `{"objects":[{"containerRef":"b"}]}`,
		"unknown field":   `{"objects":[{"objectKey":"a.pdf","bucket":"b"}]}`,
		"wrong type":      `{"objects":[{"objectKey":7}]}`,
	}
	for name, body := range cases {
		_, err := DecodeTrigger([]byte(body))
		assert.Error(t, err, name)
	}
}
