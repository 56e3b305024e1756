package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ClassifyShowAll asks the backend's lightweight classifier whether the
// message requests expanding the recent preview into the full list.
func (c *HTTPClient) ClassifyShowAll(ctx context.Context, message, previewTitle string) (bool, error) {
	body, err := json.Marshal(map[string]string{
		"message":      message,
		"previewTitle": previewTitle,
	})
	if err != nil {
		return false, fmt.Errorf("marshal classify request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/classify-show-all", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build classify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("classify call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("classify call returned %d: %s", resp.StatusCode, string(data))
	}

	var out struct {
		ShowAll bool `json:"showAll"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode classify response: %w", err)
	}
	return out.ShowAll, nil
}
