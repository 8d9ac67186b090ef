package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	socks5 "github.com/armon/go-socks5"
	"github.com/golang/glog"
)

// sandboxRoute sends every SOCKS5 connection to the sandbox listener,
// whatever host and port the browser dialled.
type sandboxRoute struct {
	host string
	port int
}

func (a *sandboxRoute) Rewrite(ctx context.Context, req *socks5.Request) (context.Context, *socks5.AddrSpec) {
	glog.V(1).Infof("proxy: %s -> %s:%d", req.DestAddr, a.host, a.port)
	return ctx, &socks5.AddrSpec{FQDN: a.host, Port: a.port}
}

// lazyResolver leaves names unresolved. sandboxRoute replaces the
// destination anyway, and hosts such as course.test have no DNS entry.
type lazyResolver struct{}

func (lazyResolver) Resolve(ctx context.Context, _ string) (context.Context, net.IP, error) {
	return ctx, nil, nil
}

// Proxy is a running SOCKS5 proxy that sends every connection to one
// address.
type Proxy struct {
	// Addr is the host:port browsers use as their SOCKS5 proxy.
	Addr string

	l    net.Listener
	done chan struct{}
}

// StartProxy starts a SOCKS5 proxy on a free loopback port that connects
// every request to target, whatever host the browser asked for.
func StartProxy(target string) (*Proxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("proxy target %q: %w", target, err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return nil, fmt.Errorf("proxy target %q has no port", target)
	}
	socks, err := socks5.New(&socks5.Config{
		Rewriter: &sandboxRoute{host: u.Hostname(), port: port},
		Resolver: lazyResolver{},
	})
	if err != nil {
		return nil, fmt.Errorf("creating SOCKS5 server for %s: %w", u.Host, err)
	}
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}

	p := &Proxy{Addr: l.Addr().String(), l: l, done: make(chan struct{})}
	// Serve until the listener is closed; that error is expected.
	go func() {
		defer close(p.done)
		if err := socks.Serve(l); err != nil && !errors.Is(err, net.ErrClosed) {
			glog.Errorf("proxy: %v", err)
		}
	}()
	glog.Infof("SOCKS5 proxy on %s forwarding to %s", p.Addr, u.Host)
	return p, nil
}

// StartProxy starts a SOCKS5 proxy that sends every request to the sandbox.
func (s *Server) StartProxy() (*Proxy, error) {
	return StartProxy(s.URL)
}

// Close stops the proxy.
func (p *Proxy) Close() error {
	err := p.l.Close()
	<-p.done
	return err
}
