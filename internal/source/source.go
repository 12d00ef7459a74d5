package source

import (
	"context"

	"revq/internal/model"
)

// Filter narrows a review-request listing. Zero values mean "no constraint";
// an empty Requester lists reviews requested from the authenticated user.
type Filter struct {
	Requester string // "user" or "org/team"
	Org       string
	Labels    []string
}

// Page is one cursor's worth of listing results. Cursor is an opaque
// continuation token; it advances forward only and is never reused.
type Page struct {
	Items   []model.ReviewSummary
	Cursor  string
	HasMore bool
}

// Lister pages through open review requests.
type Lister interface {
	ListPage(ctx context.Context, f Filter, cursor string) (Page, error)
}

// Getter resolves one summary into a full detail record.
// A nil Review with a nil error means the item is no longer accessible.
type Getter interface {
	GetDetail(ctx context.Context, owner, repo string, number int) (*model.Review, error)
}

// Source abstracts the review hosting backend. Listing and detail lookup are
// independent capabilities so implementations can be swapped per operation.
type Source interface {
	Lister
	Getter
}
