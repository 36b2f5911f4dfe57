package meterdb

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// HTTPClient is the interface for HTTP client.
type HTTPClient interface {
	// Get sends a GET request to the store or the ingestion service.
	Get(context.Context, *url.URL) (*http.Response, error)
	// Post sends a POST request with the given headers to the store or the ingestion service.
	Post(context.Context, *url.URL, http.Header, []byte) (*http.Response, error)
	// Close releases idle connections.
	Close()
}

type httpClient struct {
	client *http.Client
}

// NewHTTPClient creates a new internal HTTP client.
func NewHTTPClient() HTTPClient {
	return &httpClient{
		client: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

// Ensure httpClient implements HTTPClient.
var _ HTTPClient = (*httpClient)(nil)

func (c *httpClient) Get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	return resp, err
}

func (c *httpClient) Post(ctx context.Context, u *url.URL, header http.Header, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.client.Do(req)
	return resp, err
}

func (c *httpClient) Close() {
	c.client.CloseIdleConnections()
}

// Client talks to the time-series store and the ingestion service.
type Client struct {
	config *Config
	http   HTTPClient
}

// NewClient creates a new client.
func NewClient(config *Config) *Client {
	return NewClientWithHTTP(config, NewHTTPClient())
}

// NewClientWithHTTP creates a new client that sends requests through the given HTTPClient.
func NewClientWithHTTP(config *Config, hc HTTPClient) *Client {
	return &Client{
		config: config,
		http:   hc,
	}
}

// Close closes the client.
//
// You don't typically need to call this as the garbage collector will release
// the resources when the client is no longer referenced. However, it can be
// useful to call this if you want to release the resources immediately.
func (c *Client) Close() {
	c.http.Close()
}

func (c *Client) endpointURL(base, path string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u, nil
}
