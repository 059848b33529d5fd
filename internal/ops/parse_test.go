package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/sift/internal/errors"
	"github.com/hpungsan/sift/internal/transcript"
)

func TestParseTranscript(t *testing.T) {
	out, err := ParseTranscript(ParseTranscriptInput{Text: "User: Hello\nAssistant: Hi there\nUser: How are you?"})
	require.NoError(t, err)

	assert.True(t, out.HasRoleMarkers)
	assert.Equal(t, transcript.FormatRoleTranscript, out.DetectedFormat)
	assert.Equal(t, 2, out.UserCount)
	assert.Equal(t, 1, out.AssistantCount)
	require.Len(t, out.Messages, 3)
	assert.Equal(t, "Hi there", out.Messages[1].Content)
}

func TestParseTranscript_Options(t *testing.T) {
	text := "User: a\nAssistant: b"

	swapped, err := ParseTranscript(ParseTranscriptInput{Text: text, SwapRoles: true})
	require.NoError(t, err)
	assert.Equal(t, transcript.RoleAssistant, swapped.Messages[0].Role)
	assert.Equal(t, transcript.RoleUser, swapped.Messages[1].Role)

	single, err := ParseTranscript(ParseTranscriptInput{Text: text, SingleBlock: true})
	require.NoError(t, err)
	require.Len(t, single.Messages, 1)
	assert.Equal(t, text, single.Messages[0].Content)
}

func TestParseTranscript_EmptyText(t *testing.T) {
	_, err := ParseTranscript(ParseTranscriptInput{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "err = %v", err)
}
