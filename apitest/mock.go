package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/information-sharing-networks/apitest/hydra"
)

// Mock queues a handler that serves the next request instead of the application.
// Queued mocks are used first in first out, one per request.
func (c *Client) Mock(h http.Handler) *Client {
	c.mocks = append(c.mocks, h)
	return c
}

// MockResponse queues a canned response.
func (c *Client) MockResponse(status int, headers http.Header, body []byte) *Client {
	return c.Mock(httphelpers.HandlerWithResponse(status, headers, body))
}

// MockJSON queues a JSON-LD response with body encoded as JSON.
func (c *Client) MockJSON(status int, body any) (*Client, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return c, fmt.Errorf("could not encode mock body: %w", err)
	}
	headers := http.Header{"Content-Type": {hydra.ContentTypeJSONLD + "; charset=utf-8"}}
	return c.MockResponse(status, headers, data), nil
}

// PendingMocks returns the number of queued mocks not yet used.
func (c *Client) PendingMocks() int { return len(c.mocks) }

func (c *Client) nextHandler() (http.Handler, bool) {
	if len(c.mocks) == 0 {
		return c.handler, false
	}
	h := c.mocks[0]
	c.mocks = c.mocks[1:]
	return h, true
}
