package proxy

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	xproxy "golang.org/x/net/proxy"
)

const upstreamDialTimeout = 10 * time.Second

// Lease is a local unauthenticated proxy endpoint fronting one authenticated
// upstream. Its lifetime is bound to the browser engine it was acquired for:
// acquire before launching the engine, release when the engine is torn down.
// Release is idempotent.
type Lease struct {
	spec     *Spec
	listener net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	releaseOnce sync.Once
}

// Acquire starts a listener on 127.0.0.1 that forwards traffic through the
// upstream described by spec, injecting credentials as needed.
func Acquire(spec *Spec) (*Lease, error) {
	if spec == nil {
		return nil, fmt.Errorf("cannot acquire a lease for a direct connection")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start local proxy listener: %w", err)
	}

	l := &Lease{
		spec:     spec,
		listener: listener,
		conns:    make(map[net.Conn]struct{}),
	}
	go l.serve()
	return l, nil
}

// Endpoint returns the local endpoint URL to hand to the browser engine.
func (l *Lease) Endpoint() string {
	return fmt.Sprintf("http://%s", l.listener.Addr().String())
}

// Release closes the listener and force-closes any in-flight connections.
// Safe to call multiple times; errors are swallowed.
func (l *Lease) Release() {
	l.releaseOnce.Do(func() {
		_ = l.listener.Close()

		l.mu.Lock()
		for conn := range l.conns {
			_ = conn.Close()
		}
		l.conns = nil
		l.mu.Unlock()
	})
}

func (l *Lease) serve() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			return // listener closed by Release
		}
		if !l.track(conn) {
			_ = conn.Close()
			return
		}
		go func() {
			defer l.untrack(conn)
			l.handle(conn)
		}()
	}
}

func (l *Lease) track(conn net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns == nil {
		return false
	}
	l.conns[conn] = struct{}{}
	return true
}

func (l *Lease) untrack(conn net.Conn) {
	_ = conn.Close()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns != nil {
		delete(l.conns, conn)
	}
}

// handle serves one browser connection: a CONNECT tunnel or a single
// absolute-form plain HTTP request.
func (l *Lease) handle(clientConn net.Conn) {
	reader := bufio.NewReader(clientConn)
	req, err := http.ReadRequest(reader)
	if err != nil {
		return
	}

	if req.Method == http.MethodConnect {
		l.handleConnect(clientConn, reader, req)
		return
	}
	l.handlePlain(clientConn, req)
}

func (l *Lease) handleConnect(clientConn net.Conn, reader *bufio.Reader, req *http.Request) {
	upstreamConn, err := l.dialTunnel(req.Host)
	if err != nil {
		_, _ = io.WriteString(clientConn, "HTTP/1.1 502 Bad Gateway\r\n\r\n")
		return
	}
	defer upstreamConn.Close()

	if _, err := io.WriteString(clientConn, "HTTP/1.1 200 Connection Established\r\n\r\n"); err != nil {
		return
	}
	pipe(clientConn, reader, upstreamConn)
}

// dialTunnel opens a raw tunnel to target through the upstream proxy.
func (l *Lease) dialTunnel(target string) (net.Conn, error) {
	if l.spec.Scheme == "socks5" {
		dialer, err := l.socksDialer()
		if err != nil {
			return nil, err
		}
		return dialer.Dial("tcp", target)
	}

	upstreamConn, err := net.DialTimeout("tcp", l.spec.Addr(), upstreamDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial upstream proxy: %w", err)
	}

	connectReq := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Host: target},
		Host:   target,
		Header: make(http.Header),
	}
	if l.spec.HasAuth() {
		connectReq.Header.Set("Proxy-Authorization", basicAuth(l.spec.Username, l.spec.Password))
	}

	if err := connectReq.Write(upstreamConn); err != nil {
		upstreamConn.Close()
		return nil, fmt.Errorf("failed to write CONNECT to upstream: %w", err)
	}

	resp, err := http.ReadResponse(bufio.NewReader(upstreamConn), connectReq)
	if err != nil {
		upstreamConn.Close()
		return nil, fmt.Errorf("failed to read CONNECT response: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		upstreamConn.Close()
		return nil, fmt.Errorf("upstream proxy rejected CONNECT: %s", resp.Status)
	}
	return upstreamConn, nil
}

func (l *Lease) handlePlain(clientConn net.Conn, req *http.Request) {
	if l.spec.Scheme == "socks5" {
		// Dial the origin directly through SOCKS and replay the request
		// in origin form.
		dialer, err := l.socksDialer()
		if err != nil {
			return
		}
		host := req.URL.Host
		if req.URL.Port() == "" {
			host = net.JoinHostPort(req.URL.Hostname(), "80")
		}
		originConn, err := dialer.Dial("tcp", host)
		if err != nil {
			_, _ = io.WriteString(clientConn, "HTTP/1.1 502 Bad Gateway\r\n\r\n")
			return
		}
		defer originConn.Close()

		req.RequestURI = ""
		if err := req.Write(originConn); err != nil {
			return
		}
		_, _ = io.Copy(clientConn, originConn)
		return
	}

	// HTTP upstream: forward in proxy (absolute) form with credentials.
	upstreamConn, err := net.DialTimeout("tcp", l.spec.Addr(), upstreamDialTimeout)
	if err != nil {
		_, _ = io.WriteString(clientConn, "HTTP/1.1 502 Bad Gateway\r\n\r\n")
		return
	}
	defer upstreamConn.Close()

	if l.spec.HasAuth() {
		req.Header.Set("Proxy-Authorization", basicAuth(l.spec.Username, l.spec.Password))
	}
	req.RequestURI = ""
	if err := req.WriteProxy(upstreamConn); err != nil {
		return
	}
	_, _ = io.Copy(clientConn, upstreamConn)
}

func (l *Lease) socksDialer() (xproxy.Dialer, error) {
	var auth *xproxy.Auth
	if l.spec.HasAuth() {
		auth = &xproxy.Auth{User: l.spec.Username, Password: l.spec.Password}
	}
	return xproxy.SOCKS5("tcp", l.spec.Addr(), auth, xproxy.Direct)
}

// pipe shovels bytes between the two halves of a tunnel until both
// directions close.
func pipe(clientConn net.Conn, clientReader *bufio.Reader, upstreamConn net.Conn) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = io.Copy(upstreamConn, clientReader)
		if tcpConn, ok := upstreamConn.(*net.TCPConn); ok {
			_ = tcpConn.CloseWrite()
		}
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(clientConn, upstreamConn)
		if tcpConn, ok := clientConn.(*net.TCPConn); ok {
			_ = tcpConn.CloseWrite()
		}
	}()

	wg.Wait()
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
