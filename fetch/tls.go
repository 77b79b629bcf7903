package fetch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
	xproxy "golang.org/x/net/proxy"
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. Computed once at init time and reused for every
// connection of the standard client.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		// Fallback: if spec generation fails, dialChromeTLS uses
		// HelloChrome_Auto as-is. (Should never happen with a valid
		// utls version.)
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2, which Go's http.Transport cannot handle
	// over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// dialChromeTLS establishes a TLS connection presenting a Chrome
// fingerprint. SOCKS5 proxies are dialed directly; HTTP proxies are left
// to the transport's Proxy func.
func dialChromeTLS(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 6 * time.Second}

	var rawConn net.Conn
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil &&
			(proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			socks, err := xproxy.FromURL(proxyURL, dialer)
			if err != nil {
				return nil, fmt.Errorf("fetch: socks5 dial: %w", err)
			}
			cd, ok := socks.(xproxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("fetch: socks5 dial: dialer lacks context support")
			}
			socksConn, err := cd.DialContext(ctx, network, addr)
			if err != nil {
				return nil, fmt.Errorf("fetch: socks5 dial: %w", err)
			}
			rawConn = socksConn
		}
	}
	if rawConn == nil {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		rawConn = conn
	}

	host, _, _ := net.SplitHostPort(addr)
	var tlsConn *tls.UConn
	if len(chromeH1Spec.Extensions) > 0 {
		tlsConn = tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
			rawConn.Close()
			return nil, fmt.Errorf("fetch: apply tls spec: %w", err)
		}
	} else {
		tlsConn = tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloChrome_Auto)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
