package fetcher

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureHeaders(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestNewHTTPClient_UserAgent(t *testing.T) {
	server, headers := captureHeaders(t)

	client, err := NewHTTPClient(TransportOptions{Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
	assert.Empty(t, headers.Get("Authorization"))
}

func TestNewHTTPClient_Token(t *testing.T) {
	server, headers := captureHeaders(t)

	client, err := NewHTTPClient(TransportOptions{Token: "secret", UserAgent: "custom/1.0"})
	require.NoError(t, err)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
	assert.Equal(t, "custom/1.0", headers.Get("User-Agent"))
}

func TestNewHTTPClient_Proxy(t *testing.T) {
	client, err := NewHTTPClient(TransportOptions{
		ProxyURL: "http://proxy.internal:3128",
		NoProxy:  "raw.githubusercontent.com",
	})
	require.NoError(t, err)

	ua, ok := client.Transport.(*userAgentTransport)
	require.True(t, ok)
	base, ok := ua.base.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, base.Proxy)

	proxied, err := base.Proxy(&http.Request{URL: mustParse(t, "https://api.github.com/repos")})
	require.NoError(t, err)
	require.NotNil(t, proxied)
	assert.Equal(t, "proxy.internal:3128", proxied.Host)

	direct, err := base.Proxy(&http.Request{URL: mustParse(t, "https://raw.githubusercontent.com/a/b")})
	require.NoError(t, err)
	assert.Nil(t, direct)
}

func TestNewHTTPClient_InvalidProxy(t *testing.T) {
	_, err := NewHTTPClient(TransportOptions{ProxyURL: "://bad"})
	assert.Error(t, err)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
