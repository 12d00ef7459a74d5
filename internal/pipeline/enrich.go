package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"revq/internal/logging"
	"revq/internal/model"
	"revq/internal/source"
)

// DetailPump streams full review records. It pages through summaries like
// SummaryPump but enriches each page with concurrent detail lookups before
// the backlog resumes draining. Details land in completion order, not
// request order — a slow lookup must not hold up its page mates.
type DetailPump struct {
	src source.Source
	cfg Config
	log zerolog.Logger
}

var detailDefaults = Config{BufferSize: 15, LowWater: 10, MaxItems: 100}

func NewDetailPump(src source.Source, cfg Config) *DetailPump {
	return &DetailPump{
		src: src,
		cfg: cfg.withDefaults(detailDefaults),
		log: logging.Component("pipeline.details"),
	}
}

// Run starts the pump goroutine and returns its output channel; semantics
// match SummaryPump.Run. A failed detail lookup aborts the whole in-flight
// page, which aborts the run.
func (p *DetailPump) Run(ctx context.Context, f source.Filter) <-chan model.Review {
	out := make(chan model.Review, p.cfg.BufferSize)
	go func() {
		defer close(out)
		if err := p.pump(ctx, f, out); err != nil {
			p.log.Error().Err(err).Msg("detail stream aborted")
		}
	}()
	return out
}

func (p *DetailPump) pump(ctx context.Context, f source.Filter, out chan<- model.Review) error {
	state := newPipelineState[model.Review](p.cfg)

	for {
		if state.needsRefill() {
			p.log.Debug().Int("backlog", len(state.backlog)).Msg("fetching more")
			page, err := p.src.ListPage(ctx, f, state.cursor)
			if err != nil {
				return err
			}
			details, err := p.fanOut(ctx, page.Items)
			if err != nil {
				return err
			}
			state.advance(page.Cursor, page.HasMore, len(page.Items))
			state.push(details...)
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

// fanOut looks up every summary of a page concurrently and joins on all of
// them. The first error cancels the remaining lookups and discards any
// sibling results already collected. Summaries that resolve to "no longer
// accessible" are dropped, not failed.
func (p *DetailPump) fanOut(ctx context.Context, items []model.ReviewSummary) ([]model.Review, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := make(chan model.Review, len(items))

	for _, item := range items {
		g.Go(func() error {
			p.log.Debug().
				Str("repo", item.Owner+"/"+item.Repo).
				Int("number", item.Number).
				Msg("fetching review detail")
			review, err := p.src.GetDetail(gctx, item.Owner, item.Repo, item.Number)
			if err != nil {
				return err
			}
			if review == nil {
				p.log.Debug().Str("id", item.ID).Msg("review gone, dropping")
				return nil
			}
			results <- *review
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	details := make([]model.Review, 0, len(items))
	for r := range results {
		details = append(details, r)
	}
	return details, nil
}
