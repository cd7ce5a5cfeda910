package ghclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/hackvision/vision/internal/config"
)

// Commit is one entry of a repository's history with its change stats.
type Commit struct {
	SHA       string
	Message   string
	Author    string
	Timestamp time.Time
	Additions int
	Deletions int
}

// Client is the source-host collaborator used by the commit fetcher.
type Client interface {
	ListCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error)
	GetCommitStats(ctx context.Context, owner, repo, sha string) (additions, deletions int, err error)
	RepoExists(ctx context.Context, owner, repo string) (bool, error)
}

type restCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type restCommitDetail struct {
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

type RESTClient struct {
	apiURL string
	token  string
	client *http.Client
}

var _ Client = (*RESTClient)(nil)

func NewRESTClient(cfg *config.Config) *RESTClient {
	return &RESTClient{
		apiURL: cfg.GitHub.APIURL,
		token:  cfg.GitHub.Token,
		client: &http.Client{Timeout: cfg.GitHub.Timeout},
	}
}

func (c *RESTClient) ListCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=%d",
		c.apiURL, url.PathEscape(owner), url.PathEscape(repo), limit)

	raw, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errors.Errorf("repository %s/%s not found", owner, repo)
	case http.StatusConflict:
		// Empty repository. GitHub answers 409 for commit listings on it.
		return []Commit{}, nil
	default:
		return nil, errors.Errorf("listing commits for %s/%s: status %d", owner, repo, status)
	}

	var rest []restCommit
	if err := json.Unmarshal(raw, &rest); err != nil {
		return nil, errors.Wrap(err, "decoding commit list")
	}

	commits := make([]Commit, 0, len(rest))
	for _, rc := range rest {
		commits = append(commits, Commit{
			SHA:       rc.SHA,
			Message:   rc.Commit.Message,
			Author:    rc.Commit.Author.Name,
			Timestamp: rc.Commit.Author.Date,
		})
	}
	return commits, nil
}

func (c *RESTClient) GetCommitStats(ctx context.Context, owner, repo, sha string) (int, int, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits/%s",
		c.apiURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(sha))

	raw, status, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, 0, err
	}
	if status != http.StatusOK {
		return 0, 0, errors.Errorf("fetching commit %s: status %d", sha, status)
	}

	var detail restCommitDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return 0, 0, errors.Wrap(err, "decoding commit detail")
	}
	return detail.Stats.Additions, detail.Stats.Deletions, nil
}

func (c *RESTClient) RepoExists(ctx context.Context, owner, repo string) (bool, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", c.apiURL, url.PathEscape(owner), url.PathEscape(repo))

	_, status, err := c.get(ctx, endpoint)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, errors.Errorf("checking repository %s/%s: status %d", owner, repo, status)
	}
}

func (c *RESTClient) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "calling github api")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "reading github response")
	}
	return raw, resp.StatusCode, nil
}
