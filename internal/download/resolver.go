package download

import (
	"net/url"
	"strings"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/github"
	"github.com/quantmind-br/downgit-go/internal/utils"
)

// Root folder option values
const (
	RootFolderFalse = "false"
	RootFolderTrue  = "true"
)

// ResolveOptions are the user choices that shape a RepoSpec
type ResolveOptions struct {
	OutputName string
	RootFolder string // "false", "" or "true", or a custom folder name
}

// DefaultHost is assumed for owner/repo shorthand subjects
const DefaultHost = "github.com"

// Resolver turns subject URLs into RepoSpecs
type Resolver struct {
	apiURL string
	host   string
}

// NewResolver creates a resolver whose specs list through apiURL. host is
// used for subjects given without one, e.g. "acme/widgets/tree/main/src".
func NewResolver(apiURL, host string) *Resolver {
	if apiURL == "" {
		apiURL = github.DefaultAPIURL
	}
	if host == "" {
		host = DefaultHost
	}
	return &Resolver{apiURL: apiURL, host: host}
}

// Resolve parses /<owner>/<repo>[/<tree|blob>/<ref>[/<subpath...>]].
// It performs no I/O.
func (r *Resolver) Resolve(rawURL string, opts ResolveOptions) (*domain.RepoSpec, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, domain.NewValidationError("url", "url is required")
	}
	if !strings.Contains(rawURL, "://") {
		first, _, _ := strings.Cut(strings.TrimPrefix(rawURL, "/"), "/")
		if strings.Contains(first, ".") || strings.Contains(first, ":") {
			rawURL = "https://" + rawURL
		} else {
			rawURL = "https://" + r.host + "/" + strings.TrimPrefix(rawURL, "/")
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, domain.NewValidationError("url", err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, domain.NewValidationError("url", "unsupported scheme "+u.Scheme)
	}
	if u.Host == "" {
		return nil, domain.NewValidationError("url", "missing host")
	}

	segments := splitPath(u.Path)
	if len(segments) < 2 {
		return nil, domain.NewValidationError("url", "missing owner or repository segment")
	}

	spec := &domain.RepoSpec{
		Scheme:     u.Scheme,
		Host:       u.Host,
		Owner:      segments[0],
		Repository: strings.TrimSuffix(segments[1], ".git"),
	}
	if spec.Repository == "" {
		return nil, domain.NewValidationError("url", "missing repository segment")
	}

	// segments[2] is the tree/blob marker
	if len(segments) > 3 {
		spec.Ref = segments[3]
	}
	if len(segments) > 4 {
		spec.Subpath = strings.Join(segments[4:], "/")
	}

	spec.ListingPrefix = github.ListingPrefix(r.apiURL, spec.Owner, spec.Repository)
	spec.SubjectName = segments[len(segments)-1]
	if len(segments) == 2 {
		spec.SubjectName = spec.Repository
	}

	spec.OutputName = spec.SubjectName
	if opts.OutputName != "" {
		spec.OutputName = utils.SanitizeFilename(opts.OutputName)
	}

	spec.RootFolder = ParseRootFolder(opts.RootFolder)
	return spec, nil
}

// ParseRootFolder maps the root folder option onto a policy
func ParseRootFolder(value string) domain.RootFolderPolicy {
	switch value {
	case RootFolderFalse:
		return domain.RootFolderPolicy{Kind: domain.RootFolderNone}
	case "", RootFolderTrue:
		return domain.RootFolderPolicy{Kind: domain.RootFolderSubject}
	default:
		return domain.RootFolderPolicy{Kind: domain.RootFolderCustom, Name: value}
	}
}

func splitPath(p string) []string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
