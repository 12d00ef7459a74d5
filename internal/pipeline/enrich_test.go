package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revq/internal/model"
	"revq/internal/source"
)

// fakeSource serves scripted pages and per-review details. A missing details
// entry means the review is gone; delays simulate slow lookups.
type fakeSource struct {
	pages   []source.Page
	details map[int]model.Review
	delays  map[int]time.Duration
	errOn   map[int]error

	listCalls int
}

func (s *fakeSource) ListPage(_ context.Context, _ source.Filter, _ string) (source.Page, error) {
	n := s.listCalls
	s.listCalls++
	if n >= len(s.pages) {
		return source.Page{}, nil
	}
	return s.pages[n], nil
}

func (s *fakeSource) GetDetail(ctx context.Context, _, _ string, number int) (*model.Review, error) {
	if d := s.delays[number]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.errOn[number]; err != nil {
		return nil, err
	}
	review, ok := s.details[number]
	if !ok {
		return nil, nil
	}
	return &review, nil
}

func page(hasMore bool, numbers ...int) source.Page {
	items := make([]model.ReviewSummary, len(numbers))
	for i, n := range numbers {
		items[i] = model.ReviewSummary{
			ID:     fmt.Sprintf("id-%d", n),
			Owner:  "acme",
			Repo:   "gateway",
			Number: n,
		}
	}
	cursor := ""
	if hasMore {
		cursor = "next"
	}
	return source.Page{Items: items, Cursor: cursor, HasMore: hasMore}
}

func detailsFor(numbers ...int) map[int]model.Review {
	m := make(map[int]model.Review, len(numbers))
	for _, n := range numbers {
		m[n] = model.Review{ID: fmt.Sprintf("id-%d", n), Number: n}
	}
	return m
}

func collectReviews(ch <-chan model.Review) []int {
	var numbers []int
	for r := range ch {
		numbers = append(numbers, r.Number)
	}
	return numbers
}

func TestDetailPump_DeliversEveryDetail(t *testing.T) {
	src := &fakeSource{
		pages: []source.Page{
			page(true, 1, 2, 3),
			page(false, 4, 5),
		},
		details: detailsFor(1, 2, 3, 4, 5),
		delays: map[int]time.Duration{
			1: 30 * time.Millisecond,
			3: 10 * time.Millisecond,
		},
	}

	pump := NewDetailPump(src, Config{})
	got := collectReviews(pump.Run(context.Background(), source.Filter{}))

	require.ElementsMatch(t, []int{1, 2, 3, 4, 5}, got)
}

func TestDetailPump_CompletionOrderWithinPage(t *testing.T) {
	src := &fakeSource{
		pages:   []source.Page{page(false, 1, 2)},
		details: detailsFor(1, 2),
		delays:  map[int]time.Duration{1: 200 * time.Millisecond},
	}

	pump := NewDetailPump(src, Config{})
	got := collectReviews(pump.Run(context.Background(), source.Filter{}))

	// The fast lookup lands first even though its summary came second.
	require.Equal(t, []int{2, 1}, got)
}

func TestDetailPump_DropsGoneReviews(t *testing.T) {
	src := &fakeSource{
		pages:   []source.Page{page(false, 1, 2, 3)},
		details: detailsFor(1, 3), // 2 has vanished
	}

	pump := NewDetailPump(src, Config{})
	got := collectReviews(pump.Run(context.Background(), source.Filter{}))

	require.ElementsMatch(t, []int{1, 3}, got)
}

func TestDetailPump_DetailErrorAbortsRun(t *testing.T) {
	src := &fakeSource{
		pages: []source.Page{
			page(true, 1, 2),
			page(false, 3, 4),
		},
		details: detailsFor(1, 2, 3, 4),
		errOn:   map[int]error{4: errors.New("forbidden")},
	}

	// LowWater 1 lets the first page drain before the failing refetch.
	pump := NewDetailPump(src, Config{LowWater: 1})
	got := collectReviews(pump.Run(context.Background(), source.Filter{}))

	// One item from the first page makes it out before the pump refetches;
	// nothing from the failed page does, including its healthy sibling.
	assert.NotContains(t, got, 3)
	assert.NotContains(t, got, 4)
	assert.LessOrEqual(t, len(got), 2)
	assert.Equal(t, 2, src.listCalls)
}

func TestDetailPump_ConsumerCancel(t *testing.T) {
	src := &fakeSource{
		pages:   []source.Page{page(true, 1, 2, 3), page(false, 4)},
		details: detailsFor(1, 2, 3, 4),
	}

	ctx, cancel := context.WithCancel(context.Background())
	pump := NewDetailPump(src, Config{})
	ch := pump.Run(ctx, source.Filter{})

	<-ch
	cancel()
	for range ch {
	}
	// Reaching here means the stream closed after cancellation.
}
