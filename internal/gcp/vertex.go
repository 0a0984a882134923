package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const TranscriberSystemPrompt = "You are a transcription engine for scanned medical documents. You return the text printed on the pages and nothing else."
const TranscriberUserPrompt = `You will be provided with a PDF document.

Transcribe every line of text that appears on its pages, top to bottom, page by page.
Tables: write one row per line and separate cells with " | ".
Do not summarize, translate, correct or interpret the content.
Do not describe images or add any commentary, headings or code fences.
If a page carries no readable text, output nothing for it.`

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i can't help with",
	"as a large language model",
}

// VertexTranscriber reads PDFs with a Gemini model on Vertex AI.
type VertexTranscriber struct {
	model      *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertexTranscriber creates a client configured for deterministic transcription.
func NewVertexTranscriber(ctx context.Context, projectID, region, modelName string) (*VertexTranscriber, error) {
	if projectID == "" || region == "" || modelName == "" {
		return nil, fmt.Errorf("NewVertexTranscriber: projectID, region and model cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranscriberSystemPrompt)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}
	// Clinical vocabulary trips the default filters.
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexTranscriber{model: model, baseClient: baseClient}, nil
}

// Transcribe sends the PDF inline and returns the model's text.
func (v *VertexTranscriber) Transcribe(ctx context.Context, pdf []byte) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Blob{MIMEType: "application/pdf", Data: pdf}, genai.Text(TranscriberUserPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate transcription from gemini: %w", err)
	}
	text := responseText(resp)
	if IsRefusal(text) {
		return "", fmt.Errorf("gemini response indicates refusal to transcribe document")
	}
	return text, nil
}

func (v *VertexTranscriber) Close() error {
	if v.baseClient != nil {
		return v.baseClient.Close()
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var contentBuilder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			contentBuilder.WriteString(string(txt))
		}
	}

	contentStr := strings.TrimSpace(contentBuilder.String())
	contentStr = strings.TrimPrefix(contentStr, "```text")
	contentStr = strings.TrimPrefix(contentStr, "```")
	contentStr = strings.TrimSuffix(contentStr, "```")
	return strings.TrimSpace(contentStr)
}

// IsRefusal reports whether model output is a refusal instead of content.
func IsRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
