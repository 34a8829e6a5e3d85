package miner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	xproxy "golang.org/x/net/proxy"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
)

// newPathClient builds an HTTP client for the session's network path:
// direct when spec is nil, otherwise routed through the upstream proxy.
// Plain connectivity checks and IP lookups use this client; browser traffic
// goes through the lease instead.
func newPathClient(spec *proxy.Spec, timeout time.Duration) *http.Client {
	transport := &http.Transport{DisableKeepAlives: true}

	if spec != nil {
		if spec.Scheme == "socks5" {
			addr := spec.Addr()
			var auth *xproxy.Auth
			if spec.HasAuth() {
				auth = &xproxy.Auth{User: spec.Username, Password: spec.Password}
			}
			transport.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
				dialer, err := xproxy.SOCKS5("tcp", addr, auth, xproxy.Direct)
				if err != nil {
					return nil, err
				}
				return dialer.Dial(network, address)
			}
		} else {
			transport.Proxy = http.ProxyURL(spec.URL())
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}
}

// probeURL performs one plain reachability request. Any transport failure
// or error status counts as a failed probe.
func probeURL(ctx context.Context, client *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

// lookupIP fetches the externally observed IP address over the given client.
func lookupIP(ctx context.Context, client *http.Client, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode IP response: %w", err)
	}
	if payload.IP == "" {
		return "", fmt.Errorf("empty IP in response")
	}
	return payload.IP, nil
}
