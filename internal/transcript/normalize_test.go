package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Empty(t *testing.T) {
	n := Normalize(" \n\t ")

	assert.Equal(t, FormatEmpty, n.DetectedFormat)
	assert.False(t, n.HadExplicitRoles)
	assert.Empty(t, n.Messages)
	assert.NotNil(t, n.Messages)
	assert.Empty(t, n.Warnings)
}

func TestNormalize_RoleTranscript(t *testing.T) {
	n := Normalize("User: Should we cut the beta?\r\nAssistant: Yes, ship GA on Friday.")

	assert.Equal(t, FormatRoleTranscript, n.DetectedFormat)
	assert.True(t, n.HadExplicitRoles)
	assert.Equal(t, []Role{RoleUser, RoleAssistant}, n.NormalizedRoles)
	assert.Empty(t, n.Warnings)
	require.Len(t, n.Messages, 2)
	assert.Equal(t, Segment{Index: 0, Role: RoleUser, Content: "Should we cut the beta?"}, n.Messages[0])
	assert.Equal(t, Segment{Index: 1, Role: RoleAssistant, Content: "Yes, ship GA on Friday."}, n.Messages[1])
}

func TestNormalize_PlainText(t *testing.T) {
	n := Normalize("Decided to move standup to 10am. Need to tell Priya.")

	assert.Equal(t, FormatPlainText, n.DetectedFormat)
	assert.False(t, n.HadExplicitRoles)
	assert.Equal(t, []Role{RoleUser}, n.NormalizedRoles)
	require.Len(t, n.Messages, 1)
	assert.Equal(t, "Decided to move standup to 10am. Need to tell Priya.", n.Messages[0].Content)
}

func TestNormalize_Markdown(t *testing.T) {
	n := Normalize("# Weekly notes\n\n- ship importer\n- hire designer\n")

	assert.Equal(t, FormatMarkdown, n.DetectedFormat)
	require.Len(t, n.Messages, 1)
	assert.Equal(t, RoleUser, n.Messages[0].Role)
}

func TestNormalize_TextBeforeFirstMarker(t *testing.T) {
	n := Normalize("context from slack\nUser: what now?\nAssistant: wait for legal.")

	assert.Equal(t, FormatRoleTranscript, n.DetectedFormat)
	assert.Contains(t, n.Warnings, WarnTextBeforeFirstMarker)
	require.Len(t, n.Messages, 3)
	assert.Equal(t, "context from slack", n.Messages[0].Content)
}

func TestNormalize_UnbalancedDegradesToSingleBlock(t *testing.T) {
	raw := "User: note one\nUser: note two"
	n := Normalize(raw)

	assert.True(t, n.HadExplicitRoles)
	assert.Contains(t, n.Warnings, WarnUnbalancedRoleMarkers)
	require.Len(t, n.Messages, 1)
	assert.Equal(t, raw, n.Messages[0].Content)
	assert.Equal(t, RoleUser, n.Messages[0].Role)
}

func TestNormalize_MarkerLookalikeKeepsProvenance(t *testing.T) {
	// "Model:" is an assistant alias, so the input looks like a one-sided transcript.
	raw := "Model: Toyota Camry\nYear: 2020"
	n := Normalize(raw)

	assert.Equal(t, FormatRoleTranscript, n.DetectedFormat)
	assert.True(t, n.HadExplicitRoles)
	assert.Equal(t, []string{WarnUnbalancedRoleMarkers}, n.Warnings)
	assert.Equal(t, []Role{RoleUser}, n.NormalizedRoles)
	require.Len(t, n.Messages, 1)
	assert.Equal(t, Segment{Index: 0, Role: RoleUser, Content: raw}, n.Messages[0])
}

func TestNormalize_EmptyRoleBlocks(t *testing.T) {
	n := Normalize("User:\nAssistant:\n")

	assert.True(t, n.HadExplicitRoles)
	assert.Equal(t, []string{WarnEmptyRoleBlocks}, n.Warnings)
	assert.Empty(t, n.Messages)
}

func TestNormalize_NFC(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	n := Normalize("cafe\u0301 plans")

	require.Len(t, n.Messages, 1)
	assert.Equal(t, "caf\u00e9 plans", n.Messages[0].Content)
}

func TestNormalize_NeverPanicsOnOddInput(t *testing.T) {
	inputs := []string{
		"**User:**",
		"**",
		"User: ```\nAssistant: ```",
		"\x00\x01 binary-ish",
		"> quoted\nUser: hi\nAI: hello",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Normalize(in) }, "input %q", in)
	}
}
