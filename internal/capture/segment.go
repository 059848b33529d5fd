package capture

// Segment is the literal stored text of a capture. A capture has exactly one,
// at index 0.
type Segment struct {
	ID        string      `json:"id"`
	CaptureID string      `json:"capture_id"`
	Index     int         `json:"index"`
	Content   string      `json:"content"`
	Meta      SegmentMeta `json:"metadata"`
	CreatedAt int64       `json:"created_at"`
	UpdatedAt int64       `json:"updated_at"`
}

// SegmentMeta is the provenance stored alongside a segment.
// After a discard only SourceMode, SourceDiscarded and DiscardedAt remain.
type SegmentMeta struct {
	SourceType      SourceType `json:"source_type,omitempty"`
	SourceMode      SourceMode `json:"source_mode"`
	SourceDiscarded bool       `json:"source_discarded"`
	DiscardedAt     *int64     `json:"discarded_at,omitempty"`
}

// DiscardedMeta builds the metadata written when raw text is erased.
func DiscardedMeta(mode SourceMode, at int64) SegmentMeta {
	return SegmentMeta{
		SourceMode:      mode,
		SourceDiscarded: true,
		DiscardedAt:     &at,
	}
}
