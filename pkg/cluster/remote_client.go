package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 512

// KeyValue is the JSON body of POST /put on both the coordinator and the nodes.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HTTPClient реализует Remote для HTTP API ноды хранения
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient создает клиент для ноды. httpClient может быть общим для всех нод.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultReplicaTimeout}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// HTTPClientFactory отдает фабрику, которая разделяет один http.Client между нодами.
func HTTPClientFactory(timeout time.Duration) ClientFactory {
	shared := &http.Client{Timeout: timeout}
	return func(node Node) (Remote, error) {
		if node.Address == "" {
			return nil, fmt.Errorf("node %s has no address", node.ID)
		}
		return NewHTTPClient(node.Address, shared), nil
	}
}

func (c *HTTPClient) Put(ctx context.Context, key, value string) error {
	body, err := json.Marshal(KeyValue{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("encode PUT body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/put", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create PUT request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute PUT request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("PUT failed with status %d: %s", resp.StatusCode, string(b))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Get returns found=false without an error when the node answers 404.
func (c *HTTPClient) Get(ctx context.Context, key string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get/"+url.PathEscape(key), nil)
	if err != nil {
		return "", false, fmt.Errorf("create GET request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", false, fmt.Errorf("GET failed with status %d: %s", resp.StatusCode, string(b))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read GET body: %w", err)
	}
	return string(b), true, nil
}
