package gather_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hackvision/vision/internal/gather"
)

type fakeRegistry struct {
	approved []gather.ApprovedProject
	err      error
}

func (r *fakeRegistry) ListApproved(_ context.Context) ([]gather.ApprovedProject, error) {
	return r.approved, r.err
}

func TestURLsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical", "github.com/acme/widget", "github.com/acme/widget", true},
		{"normalization variants", "https://WWW.GitHub.com/Acme/Widget/", "github.com/acme/widget", true},
		{"same repo different path", "https://github.com/acme/widget/tree/main", "github.com/acme/widget", true},
		{"different repos", "github.com/acme/widget", "github.com/acme/gadget", false},
		{"different owners", "github.com/acme/widget", "github.com/other/widget", false},
		{"lookalike host is not the repo", "mygithub.com/acme/widget", "github.com/acme/widget", false},
		{"github.com in path is not the repo", "example.com/github.com/acme/widget", "github.com/acme/widget", false},
		{"non github equal", "https://widget.example.com/", "widget.example.com", true},
		{"non github different", "widget.example.com", "gadget.example.com", false},
		{"empty side", "", "github.com/acme/widget", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, gather.URLsDuplicate(tt.a, tt.b))
			require.Equal(t, tt.want, gather.URLsDuplicate(tt.b, tt.a), "duplicate check must be symmetric")
		})
	}
}

func TestDuplicateChecker(t *testing.T) {
	registry := &fakeRegistry{
		approved: []gather.ApprovedProject{
			{CodeURL: "https://github.com/acme/widget", PlayableURL: "https://widget.example.com"},
		},
	}
	checker := gather.NewDuplicateChecker(registry)

	dup, err := checker.IsDuplicate(context.Background(), "https://WWW.GitHub.com/Acme/Widget/", "https://new.example.com")
	require.NoError(t, err)
	require.True(t, dup)

	dup, err = checker.IsDuplicate(context.Background(), "github.com/acme/gadget", "widget.example.com/")
	require.NoError(t, err)
	require.True(t, dup, "playable url match counts as duplicate")

	dup, err = checker.IsDuplicate(context.Background(), "github.com/acme/gadget", "gadget.example.com")
	require.NoError(t, err)
	require.False(t, dup)
}

func TestDuplicateCheckerRegistryError(t *testing.T) {
	checker := gather.NewDuplicateChecker(&fakeRegistry{err: errors.New("registry down")})

	_, err := checker.IsDuplicate(context.Background(), "github.com/acme/widget", "")
	require.Error(t, err)
}
