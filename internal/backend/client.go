package backend

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client is the HTTP connection pool shared by all backends. It is created
// on first use and released by Close.
type Client struct {
	mu        sync.Mutex
	transport *http.Transport
	http      *http.Client
}

// NewClient returns a Client; no connections are made until first use.
func NewClient() *Client {
	return &Client{}
}

// HTTP returns the shared *http.Client, creating it if needed.
func (c *Client) HTTP() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.http == nil {
		c.transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		}
		c.http = &http.Client{Transport: c.transport}
	}
	return c.http
}

// Close releases idle connections. A later call to HTTP starts a new pool.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	c.transport = nil
	c.http = nil
}

// do sends req and returns the body of a 200 response.
func (c *Client) do(req *http.Request) ([]byte, Reason) {
	resp, err := c.HTTP().Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, ReasonStatus
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classify(err)
	}
	return body, ""
}

func classify(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetwork
}
