// Package github adapts the GitHub REST API to the listing interface used by
// the download pipeline.
package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
)

// DefaultAPIURL is the public GitHub REST endpoint
const DefaultAPIURL = "https://api.github.com/"

// NewClient creates a *github.Client over httpClient. Token and proxy are
// expected to be carried by httpClient's transport. Pass apiURL="" for the
// public API or a custom base (GitHub Enterprise, a local fake) otherwise.
func NewClient(httpClient *http.Client, apiURL string) (*gogithub.Client, error) {
	c := gogithub.NewClient(httpClient)
	if err := applyBaseURL(c, apiURL); err != nil {
		return nil, err
	}
	return c, nil
}

func applyBaseURL(c *gogithub.Client, apiURL string) error {
	if apiURL == "" || apiURL == DefaultAPIURL {
		return nil
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return fmt.Errorf("invalid github api url: %w", err)
	}
	c.BaseURL = u
	return nil
}

// ListingPrefix returns the contents endpoint prefix for a repository,
// e.g. https://api.github.com/repos/acme/widgets/contents/
func ListingPrefix(apiURL, owner, repo string) string {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	return fmt.Sprintf("%srepos/%s/%s/contents/", apiURL, owner, repo)
}
