package gather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hackvision/vision/internal/config"
)

// Frontend framework signatures detected by substring match on the page.
var frameworkSignatures = map[string][]string{
	"React":     {"react", "jsx"},
	"Vue":       {"vue", "v-bind", "v-model"},
	"Angular":   {"angular", "ng-"},
	"Svelte":    {"svelte"},
	"Bootstrap": {"bootstrap"},
	"Tailwind":  {"tailwind"},
	"jQuery":    {"jquery"},
}

var frameworkOrder = []string{"React", "Vue", "Angular", "Svelte", "Bootstrap", "Tailwind", "jQuery"}

// PageEvidence is the raw material of the project-test step: a capped
// slice of the live page plus counts of its interactive elements.
type PageEvidence struct {
	URL        string   `json:"url"`
	Content    string   `json:"content"`
	Forms      int      `json:"forms"`
	Buttons    int      `json:"buttons"`
	Inputs     int      `json:"inputs"`
	Scripts    int      `json:"scripts"`
	Frameworks []string `json:"frameworks"`
	FetchError string   `json:"fetch_error,omitempty"`
}

type ContentFetcher struct {
	client   *http.Client
	maxChars int
}

func NewContentFetcher(cfg *config.Config) *ContentFetcher {
	return &ContentFetcher{
		client:   &http.Client{Timeout: cfg.Review.ContentTimeout},
		maxChars: cfg.Review.ContentMaxChars,
	}
}

// Fetch retrieves the live page. Network and HTTP failures are soft: the
// returned evidence carries empty content and the error, and the returned
// error is a *SoftFetchError so the pipeline records it and moves on.
func (f *ContentFetcher) Fetch(ctx context.Context, pageURL string) (PageEvidence, error) {
	evidence := PageEvidence{URL: pageURL, Frameworks: []string{}}

	target := pageURL
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		evidence.FetchError = err.Error()
		return evidence, NewSoftFetchError("fetching page content", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		evidence.FetchError = err.Error()
		return evidence, NewSoftFetchError("fetching page content", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := &statusError{code: resp.StatusCode}
		evidence.FetchError = err.Error()
		return evidence, NewSoftFetchError("fetching page content", err)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxChars)))
	if err != nil {
		evidence.FetchError = err.Error()
		return evidence, NewSoftFetchError("reading page content", err)
	}

	page := string(raw)
	evidence.Content = page

	lower := strings.ToLower(page)
	evidence.Forms = strings.Count(lower, "<form")
	evidence.Buttons = strings.Count(lower, "<button")
	evidence.Inputs = strings.Count(lower, "<input")
	evidence.Scripts = strings.Count(lower, "<script")

	for _, name := range frameworkOrder {
		for _, sig := range frameworkSignatures[name] {
			if strings.Contains(lower, sig) {
				evidence.Frameworks = append(evidence.Frameworks, name)
				break
			}
		}
	}

	return evidence, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}
