// Package pathstore stores extraction results in a remote pathstore
// key-value service.
package pathstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client communicates with the pathstore HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NodeRequest is the body for PUT /kv/{key}.
type NodeRequest struct {
	Value      json.RawMessage `json:"value"`
	MemoryType string          `json:"memory_type,omitempty"`
	Source     string          `json:"source,omitempty"`
	ExpiresAt  string          `json:"expires_at,omitempty"`
}

// NodeResponse is the response from GET /kv/{key}.
type NodeResponse struct {
	Key       string          `json:"key_path"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt string          `json:"expires_at,omitempty"`
}

// PutNode stores or replaces the node at key.
func (c *Client) PutNode(ctx context.Context, key string, req NodeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal node: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, key, body)
	if err != nil {
		return fmt.Errorf("put node: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("put node "+key, resp)
	}
	return nil
}

// GetNode retrieves a node by key. A missing node is (nil, nil).
func (c *Client) GetNode(ctx context.Context, key string) (*NodeResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("get node: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, statusError("get node "+key, resp)
	}

	var node NodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return &node, nil
}

// DeleteNode deletes a node. Deleting a missing node is not an error.
func (c *Client) DeleteNode(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, key, nil)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	return statusError("delete node "+key, resp)
}

// do sends one request against /kv/{key}. A non-nil body is sent as JSON.
func (c *Client) do(ctx context.Context, method, key string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/kv/"+key, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.httpClient.Do(req)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(body))
}
