package http

import (
	nethttp "net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// NewClient returns an HTTP client with a bounded timeout and pooled connections.
func NewClient(timeout time.Duration) *nethttp.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := nethttp.DefaultTransport.(*nethttp.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	return &nethttp.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
