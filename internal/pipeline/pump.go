// Package pipeline turns the cursor-based review listing API into bounded,
// backpressured streams. Each pump runs as its own goroutine that owns a
// FIFO backlog and the sending half of a buffered channel; the channel is
// the only structure shared with the consumer.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"revq/internal/logging"
	"revq/internal/model"
	"revq/internal/source"
)

// Config tunes a pump. Zero fields fall back to the pump's defaults.
type Config struct {
	// BufferSize is the capacity of the output channel. A full channel
	// suspends the pump until the consumer catches up.
	BufferSize int
	// LowWater is the backlog size at or below which the pump fetches the
	// next page, as long as the source has more.
	LowWater int
	// MaxItems is the hard cap on summaries observed from the source. Once
	// crossed, no further pages are fetched; the backlog still drains.
	MaxItems int
}

func (c Config) withDefaults(def Config) Config {
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	if c.LowWater <= 0 {
		c.LowWater = def.LowWater
	}
	if c.MaxItems <= 0 {
		c.MaxItems = def.MaxItems
	}
	return c
}

// pipelineState is owned exclusively by its pump goroutine; it is never
// shared or locked.
type pipelineState[T any] struct {
	backlog []T
	cursor  string
	hasMore bool
	seen    int

	lowWater int
	maxItems int
}

func newPipelineState[T any](cfg Config) *pipelineState[T] {
	return &pipelineState[T]{
		hasMore:  true,
		lowWater: cfg.LowWater,
		maxItems: cfg.MaxItems,
	}
}

func (s *pipelineState[T]) needsRefill() bool {
	return len(s.backlog) <= s.lowWater && s.hasMore
}

// advance records the outcome of a listing call: the new cursor position and
// how many items the source reported.
func (s *pipelineState[T]) advance(cursor string, hasMore bool, fetched int) {
	s.cursor = cursor
	s.hasMore = hasMore
	s.seen += fetched
}

func (s *pipelineState[T]) capped() bool {
	return s.seen > s.maxItems
}

func (s *pipelineState[T]) push(items ...T) {
	s.backlog = append(s.backlog, items...)
}

func (s *pipelineState[T]) pop() (T, bool) {
	if len(s.backlog) == 0 {
		var zero T
		return zero, false
	}
	head := s.backlog[0]
	s.backlog = s.backlog[1:]
	return head, true
}

// send delivers one item, blocking while the channel is full. It reports
// false when the consumer cancelled the stream.
func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// drain flushes whatever is left in the backlog after the pump loop ends,
// best-effort: it stops as soon as the consumer is gone.
func drain[T any](ctx context.Context, out chan<- T, s *pipelineState[T]) {
	for _, item := range s.backlog {
		if !send(ctx, out, item) {
			return
		}
	}
}

// SummaryPump streams review summaries in page order.
type SummaryPump struct {
	src source.Lister
	cfg Config
	log zerolog.Logger
}

var summaryDefaults = Config{BufferSize: 20, LowWater: 15, MaxItems: 100}

func NewSummaryPump(src source.Lister, cfg Config) *SummaryPump {
	return &SummaryPump{
		src: src,
		cfg: cfg.withDefaults(summaryDefaults),
		log: logging.Component("pipeline.summaries"),
	}
}

// Run starts the pump goroutine and returns its output channel. The channel
// is closed when the source is exhausted, the hard cap is crossed, or a
// listing call fails; cancelling ctx stops the pump promptly. A failure is
// logged, not surfaced — the consumer simply observes end-of-stream.
func (p *SummaryPump) Run(ctx context.Context, f source.Filter) <-chan model.ReviewSummary {
	out := make(chan model.ReviewSummary, p.cfg.BufferSize)
	go func() {
		defer close(out)
		if err := p.pump(ctx, f, out); err != nil {
			p.log.Error().Err(err).Msg("summary stream aborted")
		}
	}()
	return out
}

func (p *SummaryPump) pump(ctx context.Context, f source.Filter, out chan<- model.ReviewSummary) error {
	state := newPipelineState[model.ReviewSummary](p.cfg)

	for {
		if state.needsRefill() {
			p.log.Debug().Int("backlog", len(state.backlog)).Msg("fetching more")
			page, err := p.src.ListPage(ctx, f, state.cursor)
			if err != nil {
				return err
			}
			state.advance(page.Cursor, page.HasMore, len(page.Items))
			state.push(page.Items...)
			if !state.hasMore {
				break
			}
		}

		if state.capped() {
			break
		}

		if item, ok := state.pop(); ok {
			if !send(ctx, out, item) {
				return nil
			}
		}
	}

	drain(ctx, out, state)
	return nil
}
