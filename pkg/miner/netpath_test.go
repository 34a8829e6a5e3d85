package miner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
)

func TestProbeURL(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	client := newPathClient(nil, 2*time.Second)

	assert.NoError(t, probeURL(context.Background(), client, server.URL))

	status = http.StatusForbidden
	err := probeURL(context.Background(), client, server.URL)
	assert.ErrorContains(t, err, "403")

	server.Close()
	assert.Error(t, probeURL(context.Background(), client, server.URL))
}

func TestLookupIP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"198.51.100.4"}`))
	}))
	defer server.Close()

	client := newPathClient(nil, 2*time.Second)
	ip, err := lookupIP(context.Background(), client, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.4", ip)
}

func TestLookupIP_RejectsEmptyAndMalformed(t *testing.T) {
	body := `{}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	client := newPathClient(nil, 2*time.Second)

	_, err := lookupIP(context.Background(), client, server.URL)
	assert.ErrorContains(t, err, "empty IP")

	body = `not json`
	_, err = lookupIP(context.Background(), client, server.URL)
	assert.ErrorContains(t, err, "decode")
}

func TestNewPathClient_RoutesThroughHTTPProxy(t *testing.T) {
	var sawProxyAuth bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Absolute-form request URI marks a proxied plain request.
		if r.Header.Get("Proxy-Authorization") != "" {
			sawProxyAuth = true
		}
		w.Write([]byte(`{"ip":"203.0.113.9"}`))
	}))
	defer upstream.Close()

	spec, err := proxy.Parse("http://user:pass@" + upstream.Listener.Addr().String())
	require.NoError(t, err)

	client := newPathClient(spec, 2*time.Second)
	ip, err := lookupIP(context.Background(), client, "http://api.ipify.invalid/?format=json")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", ip)
	assert.True(t, sawProxyAuth)
}
