package insight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/sift/internal/transcript"
)

// StaticExtractor replays scripted candidates from a YAML file.
//
// The file holds a list of rules. A rule applies when every string in
// `match` appears (case-insensitive) in some normalized message; a rule
// without `match` always applies. Candidates from all applying rules are
// concatenated in file order.
//
//	rules:
//	  - match: ["ship friday"]
//	    decisions:
//	      - title: Ship on Friday
//	        content: Release goes out Friday afternoon.
//	    suggested_highlights:
//	      - title: Release date
//	        content: Friday
//	        message_index: 1
type StaticExtractor struct {
	rules []staticRule
}

type staticFile struct {
	Rules []staticRule `yaml:"rules"`
}

type staticRule struct {
	Match      []string `yaml:"match,omitempty"`
	Candidates `yaml:",inline"`
}

// LoadStatic reads a StaticExtractor script from path.
func LoadStatic(path string) (*StaticExtractor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading extractor script: %w", err)
	}
	return ParseStatic(data)
}

// ParseStatic parses a StaticExtractor script.
func ParseStatic(data []byte) (*StaticExtractor, error) {
	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing extractor script: %w", err)
	}
	return &StaticExtractor{rules: f.Rules}, nil
}

// Extract implements Extractor.
func (s *StaticExtractor) Extract(ctx context.Context, segments []transcript.Segment) (*Candidates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Candidates{}
	for _, r := range s.rules {
		if !r.applies(segments) {
			continue
		}
		out.Decisions = append(out.Decisions, r.Decisions...)
		out.Commitments = append(out.Commitments, r.Commitments...)
		out.Blockers = append(out.Blockers, r.Blockers...)
		out.OpenLoops = append(out.OpenLoops, r.OpenLoops...)
		out.SuggestedHighlights = append(out.SuggestedHighlights, r.SuggestedHighlights...)
	}
	return out, nil
}

func (r staticRule) applies(segments []transcript.Segment) bool {
	for _, m := range r.Match {
		needle := strings.ToLower(strings.TrimSpace(m))
		if needle == "" {
			continue
		}
		found := false
		for _, seg := range segments {
			if strings.Contains(strings.ToLower(seg.Content), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
