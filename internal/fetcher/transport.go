package fetcher

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
	"golang.org/x/oauth2"
)

// TransportOptions configures the shared outbound HTTP client
type TransportOptions struct {
	Token     string
	ProxyURL  string
	NoProxy   string
	UserAgent string
	Timeout   time.Duration
}

// DefaultUserAgent identifies the tool on every request
const DefaultUserAgent = "downgit"

// NewHTTPClient builds the one *http.Client every outgoing request goes
// through, so token and proxy apply uniformly to listing, content and
// archive requests.
func NewHTTPClient(opts TransportOptions) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()

	if opts.ProxyURL != "" {
		if _, err := url.Parse(opts.ProxyURL); err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		proxyFunc := (&httpproxy.Config{
			HTTPProxy:  opts.ProxyURL,
			HTTPSProxy: opts.ProxyURL,
			NoProxy:    opts.NoProxy,
		}).ProxyFunc()
		base.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	var rt http.RoundTripper = &userAgentTransport{base: base, userAgent: ua}
	if opts.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   rt,
		}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}, nil
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}
