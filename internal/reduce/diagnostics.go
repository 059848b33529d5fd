// Package reduce turns one raw capture segment into persisted artifacts and a
// diagnostics record, erasing the raw text afterward in discard mode.
package reduce

import (
	"fmt"
	"time"

	"github.com/hpungsan/sift/internal/capture"
	"github.com/hpungsan/sift/internal/transcript"
)

// Error/diagnostic categories.
const (
	CategoryDecision  = "decision"
	CategoryTask      = "task"
	CategoryHighlight = "highlight"
	CategoryRun       = "run"
)

// Item-level drop reasons. Each occurrence accounts for exactly one dropped item.
const (
	ReasonDecisionInsertFailed   = "decision_insert_failed"
	ReasonCommitmentInsertFailed = "commitment_insert_failed"
	ReasonBlockerInsertFailed    = "blocker_insert_failed"
	ReasonOpenLoopInsertFailed   = "open_loop_insert_failed"
	ReasonHighlightInsertFailed  = "highlight_insert_failed"
	ReasonHighlightMissingMsg    = "highlight_missing_message"
	ReasonDecisionInvalid        = "decision_invalid"
	ReasonCommitmentInvalid      = "commitment_invalid"
	ReasonBlockerInvalid         = "blocker_invalid"
	ReasonOpenLoopInvalid        = "open_loop_invalid"
	ReasonHighlightInvalid       = "highlight_invalid"
)

// Run-level reasons. These describe the run as a whole and count at most once.
const (
	ReasonNoActionableItems      = "no_actionable_items"
	ReasonAllItemsFilteredOrFail = "all_items_filtered_or_failed"
	ReasonExtractionFailed       = "extraction_failed"
	ReasonDiscardFailed          = "discard_failed"
	ReasonDiscardConfirmFailed   = "discard_confirm_failed"
)

var runLevelReasons = map[string]bool{
	ReasonNoActionableItems:      true,
	ReasonAllItemsFilteredOrFail: true,
	ReasonExtractionFailed:       true,
	ReasonDiscardFailed:          true,
	ReasonDiscardConfirmFailed:   true,
}

// IsRunLevel reports whether reason describes the whole run rather than one item.
func IsRunLevel(reason string) bool {
	return runLevelReasons[reason]
}

// Counts is a per-category tally.
type Counts struct {
	Decisions  int `json:"decisions"`
	Tasks      int `json:"tasks"`
	Highlights int `json:"highlights"`
}

// Total sums all categories.
func (c Counts) Total() int {
	return c.Decisions + c.Tasks + c.Highlights
}

// Dropped is extracted minus persisted, with named reasons.
type Dropped struct {
	Decisions  int            `json:"decisions"`
	Tasks      int            `json:"tasks"`
	Highlights int            `json:"highlights"`
	// Reasons mixes two kinds of keys. Item-level keys count dropped items and
	// sum to the dropped total. Run-level keys (no_actionable_items,
	// all_items_filtered_or_failed, extraction_failed, discard_failed,
	// discard_confirm_failed) are flags set to 1 and count no items; use
	// IsRunLevel to tell them apart and ItemReasonTotal for the item sum.
	Reasons map[string]int `json:"reasons"`
}

// InputStats describes what the normalizer saw.
type InputStats struct {
	DetectedFormat   transcript.Format `json:"detected_format"`
	HadExplicitRoles bool              `json:"had_explicit_roles"`
	NormalizedRoles  []transcript.Role `json:"normalized_roles"`
	MessageCount     int               `json:"message_count"`
	ByteLength       int               `json:"byte_length"`

	// TokenEstimate is characters / 4. Observability only.
	TokenEstimate int `json:"token_estimate"`
}

// OutputStats holds the per-category counters.
type OutputStats struct {
	Extracted Counts  `json:"extracted"`
	Persisted Counts  `json:"persisted"`
	Dropped   Dropped `json:"dropped"`
}

// DiscardStats records the erase-and-confirm step. Present only in discard mode.
type DiscardStats struct {
	Attempted   bool   `json:"attempted"`
	Confirmed   bool   `json:"confirmed"`
	DiscardedAt *int64 `json:"discarded_at,omitempty"`
}

// ErrorTag is one soft failure recorded during a run.
type ErrorTag struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Index    *int   `json:"index,omitempty"`
	Message  string `json:"message"`
}

// Diagnostics is the record of a single reduction run. It is built once and
// never updated after Run returns.
type Diagnostics struct {
	RunID      string             `json:"run_id"`
	CaptureID  string             `json:"capture_id"`
	SourceMode capture.SourceMode `json:"source_mode"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Input      InputStats         `json:"input"`
	Output     OutputStats        `json:"output"`
	Discard    *DiscardStats      `json:"discard,omitempty"`
	Warnings   []string           `json:"warnings"`
	Errors     []ErrorTag         `json:"errors"`
}

func newDiagnostics(runID, captureID string, mode capture.SourceMode, started time.Time) *Diagnostics {
	return &Diagnostics{
		RunID:      runID,
		CaptureID:  captureID,
		SourceMode: mode,
		StartedAt:  started,
		Input: InputStats{
			NormalizedRoles: []transcript.Role{},
		},
		Output: OutputStats{
			Dropped: Dropped{Reasons: map[string]int{}},
		},
		Warnings: []string{},
		Errors:   []ErrorTag{},
	}
}

// HasErrors reports whether any soft failure was recorded.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

func (d *Diagnostics) warn(w string) {
	for _, existing := range d.Warnings {
		if existing == w {
			return
		}
	}
	d.Warnings = append(d.Warnings, w)
}

func (d *Diagnostics) countReason(reason string) {
	d.Output.Dropped.Reasons[reason]++
}

// tagRun sets a run-level reason exactly once.
func (d *Diagnostics) tagRun(reason string) {
	d.Output.Dropped.Reasons[reason] = 1
}

func (d *Diagnostics) recordError(code, category string, index *int, msg string) {
	d.Errors = append(d.Errors, ErrorTag{Code: code, Category: category, Index: index, Message: msg})
}

// computeDropped fills the per-category dropped counts.
func (d *Diagnostics) computeDropped() {
	ex, p := d.Output.Extracted, d.Output.Persisted
	d.Output.Dropped.Decisions = ex.Decisions - p.Decisions
	d.Output.Dropped.Tasks = ex.Tasks - p.Tasks
	d.Output.Dropped.Highlights = ex.Highlights - p.Highlights
}

// ItemReasonTotal sums the item-level reason counters.
func (d *Diagnostics) ItemReasonTotal() int {
	total := 0
	for reason, n := range d.Output.Dropped.Reasons {
		if !IsRunLevel(reason) {
			total += n
		}
	}
	return total
}

// Reconcile checks that dropped == extracted - persisted per category and
// that item-level reasons account for every dropped item.
func (d *Diagnostics) Reconcile() error {
	ex, p, dr := d.Output.Extracted, d.Output.Persisted, d.Output.Dropped

	check := []struct {
		name                          string
		extracted, persisted, dropped int
	}{
		{"decisions", ex.Decisions, p.Decisions, dr.Decisions},
		{"tasks", ex.Tasks, p.Tasks, dr.Tasks},
		{"highlights", ex.Highlights, p.Highlights, dr.Highlights},
	}
	for _, c := range check {
		if c.extracted-c.persisted != c.dropped {
			return fmt.Errorf("%s: extracted %d - persisted %d != dropped %d", c.name, c.extracted, c.persisted, c.dropped)
		}
		if c.dropped < 0 {
			return fmt.Errorf("%s: negative dropped count %d", c.name, c.dropped)
		}
	}

	total := dr.Decisions + dr.Tasks + dr.Highlights
	if got := d.ItemReasonTotal(); got != total {
		return fmt.Errorf("item reasons sum to %d, dropped total is %d", got, total)
	}
	return nil
}
