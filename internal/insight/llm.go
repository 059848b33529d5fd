package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/sift/internal/llm"
	"github.com/hpungsan/sift/internal/transcript"
)

const (
	llmMaxTranscriptLen = 24000
	llmMaxTokens        = 2048
)

const llmSystemPrompt = `You distill a conversation transcript into durable artifacts.

Return a JSON object with exactly these keys, each an array (possibly empty):
  "decisions"            - choices that were made
  "commitments"          - things someone agreed to do
  "blockers"             - things preventing progress
  "open_loops"           - unresolved questions or follow-ups
  "suggested_highlights" - short passages worth keeping verbatim

Every item has "title" (short) and "content" (one or two sentences), and may
have "context". Each suggested_highlights item must also have "message_index",
the [n] number of the message it quotes.

Only include items that are clearly supported by the transcript. Return JSON only.`

// LLMExtractor asks a chat-completion model for candidates.
type LLMExtractor struct {
	provider llm.Provider
}

// NewLLMExtractor wraps provider as an Extractor.
func NewLLMExtractor(provider llm.Provider) *LLMExtractor {
	return &LLMExtractor{provider: provider}
}

// Extract implements Extractor. Timeouts come from ctx.
func (e *LLMExtractor) Extract(ctx context.Context, segments []transcript.Segment) (*Candidates, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("LLM provider is nil")
	}

	response, err := e.provider.Complete(ctx, buildPrompt(segments), llm.CompletionOpts{
		Temperature: 0.1,
		MaxTokens:   llmMaxTokens,
		Format:      "json",
		System:      llmSystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM extraction call failed: %w", err)
	}

	return parseResponse(response)
}

// buildPrompt renders segments as "[index] role: content" blocks.
func buildPrompt(segments []transcript.Segment) string {
	var sb strings.Builder
	sb.WriteString("TRANSCRIPT:\n---\n")

	written := 0
	for _, seg := range segments {
		block := fmt.Sprintf("[%d] %s: %s\n\n", seg.Index, seg.Role, seg.Content)
		if written+len(block) > llmMaxTranscriptLen {
			sb.WriteString("[transcript truncated]\n")
			break
		}
		sb.WriteString(block)
		written += len(block)
	}

	sb.WriteString("---\n\nExtract the artifacts. Return JSON only.")
	return sb.String()
}

// parseResponse decodes the model's JSON, tolerating markdown code fences.
func parseResponse(raw string) (*Candidates, error) {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		start, end := 0, len(lines)
		for i, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				if start == 0 {
					start = i + 1
				} else {
					end = i
					break
				}
			}
		}
		if start > 0 && end > start {
			cleaned = strings.Join(lines[start:end], "\n")
		}
	}

	var out Candidates
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &out); err != nil {
		return nil, fmt.Errorf("invalid JSON from LLM: %w", err)
	}
	return &out, nil
}
