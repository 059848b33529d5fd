package ops

import (
	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/transcript"
)

// ParseTranscriptInput contains parameters for the ParseTranscript operation.
type ParseTranscriptInput struct {
	Text        string // required
	SwapRoles   bool
	SingleBlock bool
}

// ParseTranscriptOutput contains the parsed messages and the normalizer's view
// of the same text.
type ParseTranscriptOutput struct {
	transcript.ParseResult
	HasRoleMarkers bool              `json:"has_role_markers"`
	DetectedFormat transcript.Format `json:"detected_format"`
	Warnings       []string          `json:"warnings"`
}

// ParseTranscript splits text into role-tagged messages. Nothing is stored.
func ParseTranscript(input ParseTranscriptInput) (*ParseTranscriptOutput, error) {
	if input.Text == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	norm := transcript.Normalize(input.Text)
	return &ParseTranscriptOutput{
		ParseResult: transcript.Parse(input.Text, transcript.ParseOptions{
			SwapRoles:          input.SwapRoles,
			TreatAsSingleBlock: input.SingleBlock,
		}),
		HasRoleMarkers: transcript.HasRoleMarkers(input.Text),
		DetectedFormat: norm.DetectedFormat,
		Warnings:       norm.Warnings,
	}, nil
}
