package transcript

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/unicode/norm"
)

// Format is the structural shape detected in raw input. It is provenance for
// diagnostics; the only behavioral branch is role-structured vs freeform.
type Format string

const (
	FormatEmpty          Format = "empty"
	FormatRoleTranscript Format = "role_transcript"
	FormatMarkdown       Format = "markdown"
	FormatPlainText      Format = "plain_text"
)

// Normalizer warnings.
const (
	WarnTextBeforeFirstMarker = "text_before_first_marker"
	WarnEmptyRoleBlocks       = "empty_role_blocks"
	WarnUnbalancedRoleMarkers = "unbalanced_role_markers"
)

// Segment is one normalized message handed to extraction. Index is the
// message's position and is what highlight anchors refer to.
type Segment struct {
	Index   int    `json:"index"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Normalized is the result of Normalize.
//
// DetectedFormat and HadExplicitRoles describe the raw input: both report
// role markers whenever a marker line was seen, even when the markers were
// not used (unbalanced_role_markers degrades to one user block). Use
// NormalizedRoles and Messages for what extraction actually receives.
type Normalized struct {
	DetectedFormat Format `json:"detected_format"`

	// HadExplicitRoles means at least one role marker line was seen.
	HadExplicitRoles bool      `json:"had_explicit_roles"`
	NormalizedRoles  []Role    `json:"normalized_roles"`
	Warnings         []string  `json:"warnings"`
	Messages         []Segment `json:"messages"`
}

// Normalize classifies raw content and produces ordered role-tagged segments.
// It never fails: ambiguous structure degrades to warnings and single-block treatment.
func Normalize(raw string) Normalized {
	content := norm.NFC.String(strings.ReplaceAll(raw, "\r\n", "\n"))
	out := Normalized{
		NormalizedRoles: []Role{},
		Warnings:        []string{},
		Messages:        []Segment{},
	}

	if strings.TrimSpace(content) == "" {
		out.DetectedFormat = FormatEmpty
		return out
	}

	lines := splitLines(content)
	first := firstMarkerLine(lines)
	if first < 0 {
		if looksLikeMarkdown(content) {
			out.DetectedFormat = FormatMarkdown
		} else {
			out.DetectedFormat = FormatPlainText
		}
		out.setMessages(Parse(content, ParseOptions{TreatAsSingleBlock: true}).Messages)
		return out
	}

	out.DetectedFormat = FormatRoleTranscript
	out.HadExplicitRoles = true
	if strings.TrimSpace(strings.Join(lines[:first], "\n")) != "" {
		out.Warnings = append(out.Warnings, WarnTextBeforeFirstMarker)
	}

	parsed := Parse(content, ParseOptions{})
	switch {
	case len(parsed.Messages) == 0:
		out.Warnings = append(out.Warnings, WarnEmptyRoleBlocks)
	case parsed.UserCount == 0 || parsed.AssistantCount == 0:
		out.Warnings = append(out.Warnings, WarnUnbalancedRoleMarkers)
		out.setMessages(Parse(content, ParseOptions{TreatAsSingleBlock: true}).Messages)
	default:
		out.setMessages(parsed.Messages)
	}
	return out
}

func (n *Normalized) setMessages(msgs []Message) {
	seen := make(map[Role]bool, 2)
	for i, m := range msgs {
		n.Messages = append(n.Messages, Segment{Index: i, Role: m.Role, Content: m.Content})
		if !seen[m.Role] {
			seen[m.Role] = true
			n.NormalizedRoles = append(n.NormalizedRoles, m.Role)
		}
	}
}

var markdownParser = goldmark.New().Parser()

// looksLikeMarkdown reports whether the text has block-level markdown structure.
func looksLikeMarkdown(s string) bool {
	doc := markdownParser.Parse(text.NewReader([]byte(s)))
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading, ast.KindList, ast.KindFencedCodeBlock, ast.KindBlockquote:
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}
