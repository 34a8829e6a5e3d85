package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_DirectConnectionIsAnError(t *testing.T) {
	_, err := Acquire(nil)
	assert.Error(t, err)
}

func TestLease_EndpointIsLoopback(t *testing.T) {
	lease, err := Acquire(&Spec{Scheme: "http", Host: "127.0.0.1", Port: 9})
	require.NoError(t, err)
	defer lease.Release()

	assert.True(t, strings.HasPrefix(lease.Endpoint(), "http://127.0.0.1:"))
}

func TestLease_ReleaseIsIdempotent(t *testing.T) {
	lease, err := Acquire(&Spec{Scheme: "http", Host: "127.0.0.1", Port: 9})
	require.NoError(t, err)

	lease.Release()
	lease.Release()
	lease.Release()
}

// TestLease_InjectsProxyAuthorization runs a plain request through the lease
// against a fake upstream proxy and checks that the credentials the browser
// never sees are added on the way through.
func TestLease_InjectsProxyAuthorization(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Proxy-Authorization")
		_, _ = io.WriteString(w, "ok")
	}))
	defer upstream.Close()

	upstreamURL, err := url.Parse(upstream.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(upstreamURL.Port())
	require.NoError(t, err)

	lease, err := Acquire(&Spec{
		Scheme:   "http",
		Host:     upstreamURL.Hostname(),
		Port:     port,
		Username: "user",
		Password: "secret",
	})
	require.NoError(t, err)
	defer lease.Release()

	endpoint, err := url.Parse(lease.Endpoint())
	require.NoError(t, err)

	client := &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(endpoint)},
		Timeout:   5 * time.Second,
	}
	resp, err := client.Get("http://example.invalid/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.True(t, strings.HasPrefix(gotAuth, "Basic "), "expected basic proxy credentials, got %q", gotAuth)
}
