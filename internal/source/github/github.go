package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/cli/go-gh/v2/pkg/api"
	"github.com/rs/zerolog"
	"github.com/shurcooL/githubv4"

	"revq/internal/logging"
	"revq/internal/model"
	"revq/internal/source"
)

// pageSize is how many summaries a single listing call asks for.
const pageSize = 10

// Source talks to the GitHub GraphQL API. Authentication is resolved the
// same way the gh CLI does it (gh config, GH_TOKEN, GITHUB_TOKEN).
type Source struct {
	client *gh.GraphQLClient
	log    zerolog.Logger
}

func New() (*Source, error) {
	client, err := gh.DefaultGraphQLClient()
	if err != nil {
		return nil, fmt.Errorf("create github graphql client: %w", err)
	}
	return &Source{client: client, log: logging.Component("github")}, nil
}

// searchQuery builds a GitHub search qualifier string for open review
// requests. A requester of the form "org/team" targets team review requests.
func searchQuery(f source.Filter) string {
	requested := "review-requested:@me"
	if f.Requester != "" {
		if org, team, ok := strings.Cut(f.Requester, "/"); ok {
			requested = fmt.Sprintf("team-review-requested:%s/%s", org, team)
		} else {
			requested = fmt.Sprintf("review-requested:%s", f.Requester)
		}
	}

	parts := []string{"is:pr", requested, "state:open"}
	if f.Org != "" {
		parts = append(parts, "org:"+f.Org)
	}
	if len(f.Labels) > 0 {
		parts = append(parts, "label:"+strings.Join(f.Labels, ","))
	}
	return strings.Join(parts, " ")
}

type prsQuery struct {
	Search struct {
		Nodes []struct {
			Typename    string `graphql:"__typename"`
			PullRequest struct {
				ID         string
				Number     int
				Title      string
				CreatedAt  time.Time
				Repository struct {
					Name  string
					Owner struct {
						Login string
					}
				}
			} `graphql:"... on PullRequest"`
		}
		PageInfo struct {
			EndCursor   string
			HasNextPage bool
		}
	} `graphql:"search(query: $query, type: ISSUE, first: $first, after: $cursor)"`
}

func (s *Source) ListPage(ctx context.Context, f source.Filter, cursor string) (source.Page, error) {
	var after *githubv4.String
	if cursor != "" {
		after = githubv4.NewString(githubv4.String(cursor))
	}
	variables := map[string]any{
		"query":  githubv4.String(searchQuery(f)),
		"first":  githubv4.Int(pageSize),
		"cursor": after,
	}

	var q prsQuery
	start := time.Now()
	if err := s.client.QueryWithContext(ctx, "ReviewRequests", &q, variables); err != nil {
		return source.Page{}, fmt.Errorf("list review requests: %w", err)
	}
	s.log.Debug().
		Dur("duration", time.Since(start)).
		Int("items", len(q.Search.Nodes)).
		Msg("listed review requests")

	items := make([]model.ReviewSummary, 0, len(q.Search.Nodes))
	for _, n := range q.Search.Nodes {
		if n.Typename != "PullRequest" {
			continue
		}
		pr := n.PullRequest
		items = append(items, model.ReviewSummary{
			ID:        pr.ID,
			Owner:     pr.Repository.Owner.Login,
			Repo:      pr.Repository.Name,
			Title:     pr.Title,
			CreatedAt: pr.CreatedAt,
			Number:    pr.Number,
		})
	}

	return source.Page{
		Items:   items,
		Cursor:  q.Search.PageInfo.EndCursor,
		HasMore: q.Search.PageInfo.HasNextPage,
	}, nil
}

// contextNode is one entry of a commit's statusCheckRollup, either a
// CheckRun or a StatusContext depending on Typename.
type contextNode struct {
	Typename string `graphql:"__typename"`
	CheckRun struct {
		ID         string
		Name       string
		Status     string
		Conclusion string
	} `graphql:"... on CheckRun"`
	StatusContext struct {
		ID          string
		State       string
		Description string
		Context     string
	} `graphql:"... on StatusContext"`
}

type prQuery struct {
	Repository *struct {
		PullRequest *struct {
			ID          string
			Number      int
			Title       string
			BodyText    string
			PublishedAt *time.Time
			Author      *struct {
				Login string
			}
			Repository struct {
				Name string
			}
			Labels struct {
				Nodes []struct {
					Name string
				}
			} `graphql:"labels(first: 20)"`
			Comments struct {
				PageInfo struct {
					HasPreviousPage bool
				}
				Nodes []struct {
					BodyText string
					Author   *struct {
						Login string
					}
				}
			} `graphql:"comments(last: 10)"`
			Commits struct {
				Nodes []struct {
					Commit struct {
						StatusCheckRollup *struct {
							Contexts struct {
								Nodes []contextNode
							} `graphql:"contexts(first: 50)"`
						}
					}
				}
			} `graphql:"commits(last: 1)"`
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (s *Source) GetDetail(ctx context.Context, owner, repo string, number int) (*model.Review, error) {
	variables := map[string]any{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"number": githubv4.Int(number),
	}

	var q prQuery
	start := time.Now()
	if err := s.client.QueryWithContext(ctx, "ReviewDetail", &q, variables); err != nil {
		return nil, fmt.Errorf("get review %s/%s#%d: %w", owner, repo, number, err)
	}
	s.log.Debug().
		Dur("duration", time.Since(start)).
		Str("repo", owner+"/"+repo).
		Int("number", number).
		Msg("fetched review detail")

	// Repository or PR gone (deleted, made private): absence, not an error.
	if q.Repository == nil || q.Repository.PullRequest == nil {
		return nil, nil
	}
	pr := q.Repository.PullRequest

	review := &model.Review{
		ID:          pr.ID,
		Number:      pr.Number,
		Title:       pr.Title,
		Repo:        pr.Repository.Name,
		Body:        pr.BodyText,
		Author:      authorLogin(pr.Author),
		PublishedAt: pr.PublishedAt,
	}
	for _, l := range pr.Labels.Nodes {
		review.Labels = append(review.Labels, l.Name)
	}

	review.Comments.HasPrevious = pr.Comments.PageInfo.HasPreviousPage
	for _, c := range pr.Comments.Nodes {
		review.Comments.Comments = append(review.Comments.Comments, model.Comment{
			Author: authorLogin(c.Author),
			Text:   c.BodyText,
		})
	}

	for _, n := range pr.Commits.Nodes {
		rollup := n.Commit.StatusCheckRollup
		if rollup == nil {
			continue
		}
		for _, c := range rollup.Contexts.Nodes {
			review.StatusChecks = append(review.StatusChecks, mapStatusCheck(c))
		}
	}

	return review, nil
}

func authorLogin(a *struct{ Login string }) string {
	if a == nil {
		return "ghost"
	}
	return a.Login
}

func mapStatusCheck(n contextNode) model.StatusCheck {
	if n.Typename == "StatusContext" {
		return model.StatusContext{
			ID:          n.StatusContext.ID,
			State:       enumLabel(n.StatusContext.State),
			Description: n.StatusContext.Description,
			Context:     n.StatusContext.Context,
		}
	}
	conclusion := enumLabel(n.CheckRun.Conclusion)
	if conclusion == "" {
		conclusion = "unknown"
	}
	return model.CheckRun{
		ID:         n.CheckRun.ID,
		Name:       n.CheckRun.Name,
		Status:     enumLabel(n.CheckRun.Status),
		Conclusion: conclusion,
	}
}

// enumLabel turns GraphQL enum values like "IN_PROGRESS" into the lowercase
// phrases the UI prints ("in progress").
func enumLabel(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}
