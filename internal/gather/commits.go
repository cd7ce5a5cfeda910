package gather

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hackvision/vision/internal/config"
	"github.com/hackvision/vision/internal/ghclient"
)

// CommitInfo is one commit as fed to the commit analyzer.
type CommitInfo struct {
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"date"`
	Additions int       `json:"additions"`
	Deletions int       `json:"deletions"`
}

// CommitEvidence aggregates a repository's recent history.
type CommitEvidence struct {
	Commits        []CommitInfo `json:"commits"`
	TotalCommits   int          `json:"total_commits"`
	TotalAuthors   int          `json:"total_authors"`
	TimeSpanDays   int          `json:"time_span_days"`
	TotalAdditions int          `json:"total_additions"`
	TotalDeletions int          `json:"total_deletions"`
}

type CommitFetcher struct {
	client      ghclient.Client
	limit       int
	concurrency int
}

func NewCommitFetcher(client ghclient.Client, cfg *config.Config) *CommitFetcher {
	return &CommitFetcher{
		client:      client,
		limit:       cfg.GitHub.CommitLimit,
		concurrency: cfg.GitHub.StatsConcurrency,
	}
}

func (f *CommitFetcher) RepoExists(ctx context.Context, owner, repo string) (bool, error) {
	exists, err := f.client.RepoExists(ctx, owner, repo)
	if err != nil {
		return false, NewSoftFetchError("checking repository", err)
	}
	return exists, nil
}

// Fetch retrieves the most recent commits and their per-commit change
// stats, then computes the aggregates. Stat fetches run concurrently with
// a bounded limit to respect API rate limits; a failed stat fetch leaves
// that commit's counters at zero rather than failing the whole gather.
func (f *CommitFetcher) Fetch(ctx context.Context, owner, repo string) (*CommitEvidence, error) {
	commits, err := f.client.ListCommits(ctx, owner, repo, f.limit)
	if err != nil {
		return nil, NewSoftFetchError("listing commits", err)
	}

	infos := make([]CommitInfo, len(commits))
	for i, c := range commits {
		infos[i] = CommitInfo{
			Message:   c.Message,
			Author:    c.Author,
			Timestamp: c.Timestamp,
		}
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(f.concurrency)

	for i := range commits {
		group.Go(func() error {
			additions, deletions, err := f.client.GetCommitStats(groupCtx, owner, repo, commits[i].SHA)
			if err != nil {
				return nil
			}
			mu.Lock()
			infos[i].Additions = additions
			infos[i].Deletions = deletions
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return newCommitEvidence(infos), nil
}

func newCommitEvidence(infos []CommitInfo) *CommitEvidence {
	evidence := &CommitEvidence{
		Commits:      infos,
		TotalCommits: len(infos),
	}

	authors := make(map[string]struct{})
	var minTime, maxTime time.Time
	for _, info := range infos {
		authors[info.Author] = struct{}{}
		evidence.TotalAdditions += info.Additions
		evidence.TotalDeletions += info.Deletions

		if minTime.IsZero() || info.Timestamp.Before(minTime) {
			minTime = info.Timestamp
		}
		if info.Timestamp.After(maxTime) {
			maxTime = info.Timestamp
		}
	}

	evidence.TotalAuthors = len(authors)
	if len(infos) > 1 {
		evidence.TimeSpanDays = int(maxTime.Sub(minTime).Hours() / 24)
	}
	return evidence
}
