package demo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"revq/internal/model"
	"revq/internal/source"
)

// Source serves deterministic canned review requests so the tool can be
// driven without network access or GitHub credentials.
type Source struct {
	pages   []source.Page
	details map[string]*model.Review

	// Latency is added to every call to make streaming visible in the UI.
	Latency time.Duration
}

var baseTime = time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)

// New returns a demo source with three pages of summaries and a detail
// record for each.
func New() *Source {
	seeds := []struct {
		repo, title, author string
		labels              []string
		age                 time.Duration
	}{
		{"gateway", "Add rate limiting middleware", "alice", []string{"enhancement", "api"}, 48 * time.Hour},
		{"dashboard", "Migrate settings page to new form layer", "bob", []string{"refactor"}, 24 * time.Hour},
		{"nexus", "Implement async connection pool", "carol", []string{"feature"}, 2 * time.Hour},
		{"platform", "Add dependency injection for services", "dave", []string{"refactor", "services"}, 72 * time.Hour},
		{"allocator", "Optimize arena reuse under churn", "eve", []string{"performance"}, 30 * time.Minute},
		{"pipeline", "Retry transient artifact upload failures", "frank", []string{"ci"}, 6 * time.Hour},
		{"gateway", "Expose per-route latency histograms", "alice", []string{"observability"}, 12 * time.Hour},
		{"nexus", "Fix connection leak on handshake timeout", "carol", []string{"bug"}, 90 * time.Minute},
	}

	s := &Source{details: make(map[string]*model.Review)}

	var items []model.ReviewSummary
	for i, seed := range seeds {
		number := 100 + i
		id := "demo-" + strconv.Itoa(number)
		summary := model.ReviewSummary{
			ID:        id,
			Owner:     "acme",
			Repo:      seed.repo,
			Title:     seed.title,
			CreatedAt: baseTime.Add(-seed.age),
			Number:    number,
		}
		items = append(items, summary)

		published := summary.CreatedAt.Add(5 * time.Minute)
		s.details[detailKey("acme", seed.repo, number)] = &model.Review{
			ID:          id,
			Number:      number,
			Title:       seed.title,
			Repo:        seed.repo,
			Body:        fmt.Sprintf("This change updates %s.\n\nSee the linked issue for background.", seed.repo),
			Author:      seed.author,
			PublishedAt: &published,
			Labels:      seed.labels,
			Comments: model.CommentThread{
				Comments: []model.Comment{
					{Author: "grace", Text: "Left a few inline notes, overall direction looks right."},
					{Author: seed.author, Text: "Addressed, please take another look."},
				},
			},
			StatusChecks: []model.StatusCheck{
				model.CheckRun{ID: id + "-ci", Name: "build", Status: "completed", Conclusion: "success"},
				model.StatusContext{ID: id + "-preview", State: "pending", Description: "Deploy preview", Context: "preview/" + seed.repo},
			},
		}
	}

	// Split into pages of three so pagination is exercised.
	for start := 0; start < len(items); start += 3 {
		end := min(start+3, len(items))
		s.pages = append(s.pages, source.Page{
			Items:   items[start:end],
			Cursor:  "page-" + strconv.Itoa(start/3+1),
			HasMore: end < len(items),
		})
	}

	return s
}

func (s *Source) ListPage(ctx context.Context, _ source.Filter, cursor string) (source.Page, error) {
	if err := s.wait(ctx); err != nil {
		return source.Page{}, err
	}
	idx := 0
	for i, p := range s.pages {
		if p.Cursor == cursor {
			idx = i + 1
			break
		}
	}
	if idx >= len(s.pages) {
		return source.Page{}, nil
	}
	return s.pages[idx], nil
}

func (s *Source) GetDetail(ctx context.Context, owner, repo string, number int) (*model.Review, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.details[detailKey(owner, repo, number)], nil
}

func (s *Source) wait(ctx context.Context) error {
	if s.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(s.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func detailKey(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}
