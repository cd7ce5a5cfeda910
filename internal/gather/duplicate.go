package gather

import (
	"context"

	"github.com/hackvision/vision/internal/airtable"
	"github.com/hackvision/vision/internal/config"
)

// ApprovedProject is one entry of the external approved-projects registry.
type ApprovedProject struct {
	CodeURL     string
	PlayableURL string
}

// Registry lists previously approved projects for duplicate lookups.
type Registry interface {
	ListApproved(ctx context.Context) ([]ApprovedProject, error)
}

// URLsDuplicate reports whether two URLs identify the same project: equal
// normalized forms, or the same owner/repo when both point at the source
// host. Symmetric and invariant under NormalizeURL.
func URLsDuplicate(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	normA, normB := NormalizeURL(a), NormalizeURL(b)
	if normA == normB {
		return true
	}

	ownerA, repoA, okA := OwnerRepo(normA)
	ownerB, repoB, okB := OwnerRepo(normB)
	return okA && okB && ownerA == ownerB && repoA == repoB
}

// DuplicateChecker searches the registry for a record whose Code URL or
// Playable URL matches the submission's.
type DuplicateChecker struct {
	registry Registry
}

func NewDuplicateChecker(registry Registry) *DuplicateChecker {
	return &DuplicateChecker{registry: registry}
}

func (c *DuplicateChecker) IsDuplicate(ctx context.Context, codeURL, playableURL string) (bool, error) {
	approved, err := c.registry.ListApproved(ctx)
	if err != nil {
		return false, err
	}

	for _, project := range approved {
		if URLsDuplicate(codeURL, project.CodeURL) || URLsDuplicate(codeURL, project.PlayableURL) {
			return true, nil
		}
		if URLsDuplicate(playableURL, project.CodeURL) || URLsDuplicate(playableURL, project.PlayableURL) {
			return true, nil
		}
	}
	return false, nil
}

// AirtableRegistry reads the approved-projects table of the unified base.
type AirtableRegistry struct {
	client           airtable.Client
	baseID           string
	table            string
	codeURLField     string
	playableURLField string
}

var _ Registry = (*AirtableRegistry)(nil)

func NewAirtableRegistry(client airtable.Client, cfg *config.Config) *AirtableRegistry {
	return &AirtableRegistry{
		client:           client,
		baseID:           cfg.Airtable.RegistryBase,
		table:            cfg.Airtable.RegistryTable,
		codeURLField:     "Code URL",
		playableURLField: "Playable URL",
	}
}

func (r *AirtableRegistry) ListApproved(ctx context.Context) ([]ApprovedProject, error) {
	records, err := r.client.ListRecords(ctx, r.baseID, r.table)
	if err != nil {
		return nil, err
	}

	approved := make([]ApprovedProject, 0, len(records))
	for i := range records {
		approved = append(approved, ApprovedProject{
			CodeURL:     records[i].StringField(r.codeURLField),
			PlayableURL: records[i].StringField(r.playableURLField),
		})
	}
	return approved, nil
}
