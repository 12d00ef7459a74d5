package model

import "time"

// ReviewSummary is a single row from a review-request listing. Summaries are
// immutable once fetched; the pipeline owns them until they are drained.
type ReviewSummary struct {
	ID        string
	Owner     string // owning org or user
	Repo      string
	Title     string
	CreatedAt time.Time
	Number    int
}

// Review is the full detail record for a single pull request.
type Review struct {
	ID           string
	Number       int
	Title        string
	Repo         string
	Body         string
	Author       string
	PublishedAt  *time.Time // nil for never-published drafts
	Labels       []string
	Comments     CommentThread
	StatusChecks []StatusCheck
}

// CommentThread is the most recent slice of a PR's comment history.
type CommentThread struct {
	// HasPrevious is true when older comments exist beyond this window.
	HasPrevious bool
	Comments    []Comment
}

type Comment struct {
	Author string
	Text   string
}

// CurrentState buckets the many upstream status/conclusion strings into the
// four states the UI styles differently.
type CurrentState int

const (
	StatePending CurrentState = iota
	StateSuccess
	StateFailure
	StateExpired
)

// StatusCheck is either a StatusContext or a CheckRun. The two carry
// different fields, so they stay separate types behind a sealed interface.
type StatusCheck interface {
	CurrentState() CurrentState
	statusCheck()
}

// StatusContext is a commit status posted by an external service,
// e.g. a deployment preview.
type StatusContext struct {
	ID          string
	State       string // "success", "failure", "pending", "error", "expected"
	Description string
	Context     string
}

func (s StatusContext) statusCheck() {}

func (s StatusContext) CurrentState() CurrentState {
	switch s.State {
	case "success":
		return StateSuccess
	case "failure", "error":
		return StateFailure
	case "expected":
		return StateExpired
	default:
		return StatePending
	}
}

// CheckRun is a CI job attached to the PR's latest commit.
type CheckRun struct {
	ID         string
	Name       string
	Status     string // "completed", "in progress", "queued", ...
	Conclusion string // "success", "failure", "cancelled", ... or "unknown"
}

func (c CheckRun) statusCheck() {}

func (c CheckRun) CurrentState() CurrentState {
	if c.Status != "completed" {
		return StatePending
	}
	switch c.Conclusion {
	case "success", "neutral", "skipped":
		return StateSuccess
	case "failure", "timed out", "startup failure", "action required":
		return StateFailure
	case "stale", "cancelled":
		return StateExpired
	default:
		return StatePending
	}
}
