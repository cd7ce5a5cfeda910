package gather

import (
	"fmt"
	"net/url"
	"strings"
)

const gitHubHost = "github.com"

// IsGitHubURL reports whether the URL's host is github.com or a subdomain
// of it. Scheme and a www. prefix are ignored; the comparison is
// case-insensitive.
func IsGitHubURL(raw string) bool {
	host := hostOf(raw)
	return host == gitHubHost || strings.HasSuffix(host, "."+gitHubHost)
}

// NormalizeURL strips scheme, www. prefix and trailing slashes and
// lowercases the remainder. Normalization is idempotent.
func NormalizeURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimRight(u, "/")
}

// OwnerRepo extracts the owner and repository path segments from a
// github.com URL. The match is anchored on the host: lookalike hosts and
// URLs merely containing github.com in their path yield no owner/repo.
func OwnerRepo(raw string) (owner, repo string, ok bool) {
	norm := NormalizeURL(raw)
	rest := strings.TrimPrefix(norm, gitHubHost+"/")
	if rest == norm {
		return "", "", false
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// CanonicalGitHubURL reduces a repository URL to its base form,
// https://github.com/{owner}/{repo}, stripping tree/blob paths or anything
// after the repository name. URLs that do not parse are returned unchanged.
func CanonicalGitHubURL(raw string) string {
	owner, repo, ok := OwnerRepo(raw)
	if !ok {
		return raw
	}
	return fmt.Sprintf("https://%s/%s/%s", gitHubHost, owner, repo)
}

var videoPlatformHosts = []string{
	"youtube.com", "youtu.be", "loom.com", "vimeo.com",
	"streamable.com", "drive.google.com", "dropbox.com",
}

var fileLinkPatterns = []string{
	"github.com", "/blob/", "/raw/",
	".mp4", ".mov", ".avi", ".mkv", ".mp3", ".wav",
	".zip", ".tar", ".gz",
}

// IsVideoOrAppURL reports whether the playable URL points at a video
// platform or a downloadable file instead of a live site, or is missing
// entirely. Such submissions are desktop or mobile apps whose web surface
// cannot be exercised.
func IsVideoOrAppURL(raw string) bool {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return true
	}
	for _, host := range videoPlatformHosts {
		if strings.Contains(u, host) {
			return true
		}
	}
	for _, pattern := range fileLinkPatterns {
		if strings.Contains(u, pattern) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
