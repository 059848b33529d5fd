// Package insight defines the candidate insights proposed for a transcript
// and the extractors that produce them.
package insight

import (
	"context"
	"strings"

	"github.com/hpungsan/sift/internal/transcript"
)

// Candidate is a transient insight proposed by an Extractor.
type Candidate struct {
	Title   string  `json:"title" yaml:"title"`
	Content string  `json:"content" yaml:"content"`
	Context *string `json:"context,omitempty" yaml:"context,omitempty"`
}

// Blank reports whether the candidate carries no usable text.
func (c Candidate) Blank() bool {
	return strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Content) == ""
}

// HighlightCandidate is a suggested highlight anchored to a normalized message.
type HighlightCandidate struct {
	Candidate    `yaml:",inline"`
	MessageIndex *int `json:"message_index,omitempty" yaml:"message_index,omitempty"`
}

// Candidates groups extractor output by category.
// Commitments, Blockers and OpenLoops all become tasks.
type Candidates struct {
	Decisions           []Candidate          `json:"decisions" yaml:"decisions"`
	Commitments         []Candidate          `json:"commitments" yaml:"commitments"`
	Blockers            []Candidate          `json:"blockers" yaml:"blockers"`
	OpenLoops           []Candidate          `json:"open_loops" yaml:"open_loops"`
	SuggestedHighlights []HighlightCandidate `json:"suggested_highlights" yaml:"suggested_highlights"`
}

// TaskCount is commitments + blockers + open loops.
func (c *Candidates) TaskCount() int {
	return len(c.Commitments) + len(c.Blockers) + len(c.OpenLoops)
}

// Extractor proposes candidate insights for normalized transcript segments.
// Implementations may block on network calls; callers own timeouts via ctx.
type Extractor interface {
	Extract(ctx context.Context, segments []transcript.Segment) (*Candidates, error)
}

// NopExtractor proposes nothing.
type NopExtractor struct{}

// Extract implements Extractor.
func (NopExtractor) Extract(_ context.Context, _ []transcript.Segment) (*Candidates, error) {
	return &Candidates{}, nil
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, segments []transcript.Segment) (*Candidates, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, segments []transcript.Segment) (*Candidates, error) {
	return f(ctx, segments)
}
