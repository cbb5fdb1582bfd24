// Package http builds the HTTP clients used for outbound calls.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client with explicit dial, TLS and overall timeouts.
// Proxy settings come from the environment.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
