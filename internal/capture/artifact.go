package capture

// TaskKind distinguishes the three candidate categories that become tasks.
type TaskKind string

const (
	TaskCommitment TaskKind = "commitment"
	TaskBlocker    TaskKind = "blocker"
	TaskOpenLoop   TaskKind = "open_loop"
)

// Decision is a persisted decision artifact.
type Decision struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	ProjectID *string `json:"project_id,omitempty"`
	CaptureID string  `json:"capture_id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Context   *string `json:"context,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// Task is a persisted commitment, blocker or open loop.
type Task struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	ProjectID *string  `json:"project_id,omitempty"`
	CaptureID string   `json:"capture_id"`
	Kind      TaskKind `json:"kind"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Context   *string  `json:"context,omitempty"`
	Status    string   `json:"status"`
	CreatedAt int64    `json:"created_at"`
}

// Highlight is a persisted excerpt anchored to a message of the raw segment.
type Highlight struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	ProjectID    *string `json:"project_id,omitempty"`
	CaptureID    string  `json:"capture_id"`
	SegmentID    string  `json:"segment_id"`
	MessageIndex int     `json:"message_index"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	Context      *string `json:"context,omitempty"`
	CreatedAt    int64   `json:"created_at"`
}

// Artifacts groups everything persisted from one capture.
type Artifacts struct {
	Decisions  []Decision  `json:"decisions"`
	Tasks      []Task      `json:"tasks"`
	Highlights []Highlight `json:"highlights"`
}
