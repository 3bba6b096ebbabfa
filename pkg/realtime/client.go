package realtime

import "net/http"

// DefaultURL is the default websocket endpoint.
const DefaultURL = "wss://api.openai.com/v1/realtime"

// Client dials realtime sessions. One Client may open many concurrent
// Conns; it holds only credentials and endpoint configuration.
type Client struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// NewClient creates a realtime client. The API key is required.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		url:        DefaultURL,
		model:      DefaultModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithURL overrides the websocket endpoint. Used by tests to point the
// client at a local server.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithModel selects the speech model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets the HTTP client whose timeout bounds the websocket
// handshake.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}
