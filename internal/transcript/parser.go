// Package transcript turns raw conversational text into role-tagged messages.
//
// The parser is a line-scanning state machine over two fixed marker
// dictionaries. It never fails: text without markers becomes a single user
// message.
package transcript

import (
	"regexp"
	"strings"
)

// Role is the speaker of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) swapped() Role {
	if r == RoleUser {
		return RoleAssistant
	}
	return RoleUser
}

// Message is one role-tagged block of text.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ParseOptions adjusts Parse.
type ParseOptions struct {
	// SwapRoles inverts every final role without touching count or content.
	SwapRoles bool `json:"swap_roles,omitempty"`

	// TreatAsSingleBlock skips scanning; the trimmed input becomes one user message.
	TreatAsSingleBlock bool `json:"treat_as_single_block,omitempty"`
}

// ParseResult is the output of Parse.
type ParseResult struct {
	Messages       []Message `json:"messages"`
	UserCount      int       `json:"user_count"`
	AssistantCount int       `json:"assistant_count"`
}

var (
	userAliases      = []string{"user", "human", "you", "me"}
	assistantAliases = []string{"assistant", "ai", "chatgpt", "gpt", "claude", "gemini", "bot", "model"}
)

type marker struct {
	role    Role
	pattern *regexp.Regexp
}

// markers is checked in order; user patterns come first and the first match wins.
var markers = append(buildMarkers(RoleUser, userAliases), buildMarkers(RoleAssistant, assistantAliases)...)

// buildMarkers compiles the plain (Alias:) and bold (**Alias:** / **Alias**:) forms.
func buildMarkers(role Role, aliases []string) []marker {
	names := strings.Join(aliases, "|")
	forms := []string{
		`\*\*(?:` + names + `):\*\*`,
		`\*\*(?:` + names + `)\*\*:`,
		`(?:` + names + `):`,
	}
	out := make([]marker, 0, len(forms))
	for _, form := range forms {
		out = append(out, marker{
			role:    role,
			pattern: regexp.MustCompile(`(?i)^[ \t]*` + form + `[ \t]*`),
		})
	}
	return out
}

// matchMarker returns the role of a marker line and the line with the marker stripped.
func matchMarker(line string) (Role, string, bool) {
	for _, m := range markers {
		if loc := m.pattern.FindStringIndex(line); loc != nil {
			return m.role, line[loc[1]:], true
		}
	}
	return "", "", false
}

// HasRoleMarkers reports whether any line of text carries a role marker.
// It uses the same matcher as Parse, so the two never disagree.
func HasRoleMarkers(text string) bool {
	return firstMarkerLine(splitLines(text)) >= 0
}

func firstMarkerLine(lines []string) int {
	for i, line := range lines {
		if _, _, ok := matchMarker(line); ok {
			return i
		}
	}
	return -1
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// Parse splits text into role-tagged messages.
//
// Each marker line flushes the buffered message under the role in effect
// before it and opens a new buffer under the marker's role. Buffers are
// trimmed at flush time; empty ones are dropped. The role in effect before the
// first marker is user.
func Parse(text string, opts ParseOptions) ParseResult {
	if opts.TreatAsSingleBlock {
		return singleBlock(text)
	}

	lines := splitLines(text)
	var (
		messages []Message
		buf      []string
		current  = RoleUser
		matched  bool
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		if content != "" {
			messages = append(messages, Message{Role: current, Content: content})
		}
		buf = buf[:0]
	}

	for _, line := range lines {
		role, rest, ok := matchMarker(line)
		if !ok {
			buf = append(buf, line)
			continue
		}
		matched = true
		flush()
		current = role
		buf = append(buf, rest)
	}
	flush()

	if !matched {
		messages = singleBlock(text).Messages
	}

	if opts.SwapRoles {
		for i := range messages {
			messages[i].Role = messages[i].Role.swapped()
		}
	}
	return tally(messages)
}

func singleBlock(text string) ParseResult {
	content := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if content == "" {
		return ParseResult{Messages: []Message{}}
	}
	return tally([]Message{{Role: RoleUser, Content: content}})
}

func tally(messages []Message) ParseResult {
	res := ParseResult{Messages: messages}
	if res.Messages == nil {
		res.Messages = []Message{}
	}
	for _, m := range res.Messages {
		if m.Role == RoleUser {
			res.UserCount++
		} else {
			res.AssistantCount++
		}
	}
	return res
}
