package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revq/internal/model"
	"revq/internal/source"
)

func summaries(ids ...string) []model.ReviewSummary {
	items := make([]model.ReviewSummary, len(ids))
	for i, id := range ids {
		items[i] = model.ReviewSummary{ID: id, Owner: "acme", Repo: "gateway", Number: i + 1}
	}
	return items
}

// scriptedLister returns its pages in order, then empty exhausted pages.
type scriptedLister struct {
	pages []source.Page
	calls atomic.Int32
}

func (l *scriptedLister) ListPage(_ context.Context, _ source.Filter, _ string) (source.Page, error) {
	n := int(l.calls.Add(1)) - 1
	if n >= len(l.pages) {
		return source.Page{}, nil
	}
	return l.pages[n], nil
}

// infiniteLister always reports more pages.
type infiniteLister struct {
	pageSize int
	calls    atomic.Int32
}

func (l *infiniteLister) ListPage(_ context.Context, _ source.Filter, _ string) (source.Page, error) {
	n := int(l.calls.Add(1))
	items := make([]model.ReviewSummary, l.pageSize)
	for i := range items {
		items[i] = model.ReviewSummary{ID: fmt.Sprintf("p%d-%d", n, i)}
	}
	return source.Page{Items: items, Cursor: fmt.Sprintf("c%d", n), HasMore: true}, nil
}

type failingLister struct {
	failOn int // 1-based call number that fails
	inner  scriptedLister
}

func (l *failingLister) ListPage(ctx context.Context, f source.Filter, cursor string) (source.Page, error) {
	if int(l.inner.calls.Load())+1 == l.failOn {
		l.inner.calls.Add(1)
		return source.Page{}, errors.New("boom")
	}
	return l.inner.ListPage(ctx, f, cursor)
}

func collect(ch <-chan model.ReviewSummary) []string {
	var ids []string
	for item := range ch {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSummaryPump_PreservesPageOrder(t *testing.T) {
	lister := &scriptedLister{pages: []source.Page{
		{Items: summaries("A", "B"), Cursor: "c1", HasMore: true},
		{Items: summaries("C"), Cursor: "c2", HasMore: true},
		{HasMore: false},
	}}

	pump := NewSummaryPump(lister, Config{})
	ch := pump.Run(context.Background(), source.Filter{})

	require.Equal(t, []string{"A", "B", "C"}, collect(ch))
}

func TestSummaryPump_SingleExhaustedPage(t *testing.T) {
	lister := &scriptedLister{pages: []source.Page{
		{Items: summaries("A", "B", "C", "D", "E"), HasMore: false},
	}}

	pump := NewSummaryPump(lister, Config{})
	ch := pump.Run(context.Background(), source.Filter{})

	require.Equal(t, []string{"A", "B", "C", "D", "E"}, collect(ch))
	assert.Equal(t, int32(1), lister.calls.Load())
}

func TestSummaryPump_HardCap(t *testing.T) {
	lister := &infiniteLister{pageSize: 10}

	pump := NewSummaryPump(lister, Config{BufferSize: 20, LowWater: 10, MaxItems: 25})
	ch := pump.Run(context.Background(), source.Filter{})

	got := collect(ch)
	// The cap is crossed inside the third page; everything fetched up to
	// that point still drains.
	assert.GreaterOrEqual(t, len(got), 25)
	assert.Less(t, len(got), 35)
}

func TestSummaryPump_Backpressure(t *testing.T) {
	lister := &infiniteLister{pageSize: 5}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pump := NewSummaryPump(lister, Config{BufferSize: 5, LowWater: 2, MaxItems: 100})
	ch := pump.Run(ctx, source.Filter{})

	// With nobody receiving, the pump fills the channel plus its backlog
	// and then suspends: two pages, not unbounded growth.
	require.Eventually(t, func() bool {
		return lister.calls.Load() == 2
	}, time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool {
		return lister.calls.Load() > 2
	}, 300*time.Millisecond, 25*time.Millisecond)

	cancel()
	for range ch { // unblock and wait for shutdown
	}
}

func TestSummaryPump_ConsumerCancel(t *testing.T) {
	lister := &infiniteLister{pageSize: 10}

	ctx, cancel := context.WithCancel(context.Background())
	pump := NewSummaryPump(lister, Config{BufferSize: 3, LowWater: 2, MaxItems: 100})
	ch := pump.Run(ctx, source.Filter{})

	<-ch
	<-ch
	callsAtCancel := lister.calls.Load()
	cancel()

	// Producer must notice promptly: the channel closes and at most one
	// further page fetch happens.
	for range ch {
	}
	assert.LessOrEqual(t, lister.calls.Load(), callsAtCancel+1)
}

func TestSummaryPump_ListErrorClosesStream(t *testing.T) {
	lister := &failingLister{
		failOn: 2,
		inner: scriptedLister{pages: []source.Page{
			{Items: summaries("A", "B"), Cursor: "c1", HasMore: true},
		}},
	}

	pump := NewSummaryPump(lister, Config{LowWater: 1})
	ch := pump.Run(context.Background(), source.Filter{})

	// The first page's head is delivered before the backlog dips to the
	// low-water mark and the failing refetch aborts the run. The consumer
	// only observes a closed channel, not the error.
	got := collect(ch)
	assert.LessOrEqual(t, len(got), 2)
	assert.Equal(t, int32(2), lister.inner.calls.Load())
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults(summaryDefaults)
	assert.Equal(t, 20, cfg.BufferSize)
	assert.Equal(t, 15, cfg.LowWater)
	assert.Equal(t, 100, cfg.MaxItems)

	cfg = Config{BufferSize: 3, LowWater: 1, MaxItems: 10}.withDefaults(summaryDefaults)
	assert.Equal(t, Config{BufferSize: 3, LowWater: 1, MaxItems: 10}, cfg)
}
