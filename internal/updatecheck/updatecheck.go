// Package updatecheck compares the running version against the latest GitHub
// release.
package updatecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

const userAgent = "trackerlink-version-check"

// ErrNoReleases is returned when the project has no published releases.
var ErrNoReleases = errors.New("no releases were returned for the GitHub project")

// Project identifies the running build. Version, GitHubUser and GitHubProject
// are stamped at build time and are empty in development builds.
type Project struct {
	Version       string
	Commit        string
	GitHubUser    string
	GitHubProject string
}

// Release is the subset of a GitHub release used here.
type Release struct {
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Client queries the GitHub releases API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClient returns a client for the public GitHub API.
func NewClient(logger *zap.SugaredLogger) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// LatestRelease returns the first release listed for the project.
func (c *Client) LatestRelease(ctx context.Context, project Project) (*Release, error) {
	if project.GitHubUser == "" || project.GitHubProject == "" {
		return nil, errors.New("GitHub user and project were not provided")
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases", strings.TrimSuffix(c.BaseURL, "/"), project.GitHubUser, project.GitHubProject)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decode releases: %w", err)
	}
	if len(releases) == 0 {
		return nil, ErrNoReleases
	}
	return &releases[0], nil
}

// Newer reports whether release is newer than current. Versions that are
// both valid semantic versions are compared as such; otherwise any
// difference in name counts as newer.
func Newer(current, release string) bool {
	if current == "" || release == "" {
		return false
	}
	cv, errCurrent := semver.NewVersion(current)
	rv, errRelease := semver.NewVersion(release)
	if errCurrent != nil || errRelease != nil {
		return current != release
	}
	return rv.GreaterThan(cv)
}

// Check fetches the latest release and logs when it is newer than the running
// version. It returns the newer release, or nil.
func (c *Client) Check(ctx context.Context, project Project) (*Release, error) {
	if project.Version == "" {
		c.logger.Debug("Project version information was not provided. Unable to check for updates.")
		return nil, nil
	}
	release, err := c.LatestRelease(ctx, project)
	if err != nil {
		return nil, err
	}
	if !Newer(project.Version, release.Name) {
		c.logger.Debugf("trackerlink is up to date (%s)", project.Version)
		return nil, nil
	}
	c.logger.Infof("A new release of trackerlink is available (%s -> %s). Download: %s", project.Version, release.Name, release.HTMLURL)
	return release, nil
}
