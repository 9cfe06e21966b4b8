package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Apie2c/quiz-app/internal/domain"
)

// Client talks to the persistence endpoints. It implements app.CategoryGateway.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchCategories returns domain.ErrDocumentNotFound when the server reports no data.
func (c *Client) FetchCategories(ctx context.Context) (domain.CategoryTree, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/get-categories", nil)
	if err != nil {
		return nil, err
	}
	var body getCategoriesResponse
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	if !body.Success || body.Categories == nil {
		return nil, domain.ErrDocumentNotFound
	}
	return body.Categories, nil
}

func (c *Client) SaveCategories(ctx context.Context, tree domain.CategoryTree) error {
	if tree == nil {
		tree = domain.CategoryTree{}
	}
	payload, err := json.Marshal(saveCategoriesRequest{Categories: tree})
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/save-categories", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var body saveCategoriesResponse
	if err := c.do(req, &body); err != nil {
		return err
	}
	if !body.Success {
		return fmt.Errorf("save categories: %s", body.Error)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		var failure saveCategoriesResponse
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, failure.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
