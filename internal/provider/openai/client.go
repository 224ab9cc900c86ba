// Package openai implements the provider gateway against any
// OpenAI-compatible vector-store API (OpenAI itself plus compatible-mode
// endpoints that speak the same wire format).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ragsync/internal/provider"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New builds a gateway from a base URL and credentials. Credentials must
// contain "api_key".
func New(baseURL string, credentials map[string]interface{}) (provider.Gateway, error) {
	apiKey, _ := credentials["api_key"].(string)
	if apiKey == "" {
		return nil, fmt.Errorf("openai credentials missing api_key")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}, nil
}

func (c *Client) Healthcheck(ctx context.Context) error {
	_, err := c.doJSON(ctx, http.MethodGet, "/models", nil, nil)
	return err
}

func (c *Client) CreateVectorStore(ctx context.Context, in provider.CreateVectorStoreInput) (provider.Record, error) {
	body := map[string]interface{}{}
	if in.Name != "" {
		body["name"] = in.Name
	}
	if in.Description != "" {
		body["description"] = in.Description
	}
	if in.ExpiresAfter != nil {
		body["expires_after"] = in.ExpiresAfter
	}
	if len(in.FileIDs) > 0 {
		body["file_ids"] = in.FileIDs
	}
	if len(in.Metadata) > 0 {
		body["metadata"] = in.Metadata
	}
	return c.doJSON(ctx, http.MethodPost, "/vector_stores", nil, body)
}

func (c *Client) RetrieveVectorStore(ctx context.Context, vectorStoreID string) (provider.Record, error) {
	return c.doJSON(ctx, http.MethodGet, "/vector_stores/"+url.PathEscape(vectorStoreID), nil, nil)
}

func (c *Client) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/vector_stores/"+url.PathEscape(vectorStoreID), nil, nil)
	return err
}

func (c *Client) ListVectorStores(ctx context.Context, limit int) ([]provider.Record, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	rec, err := c.doJSON(ctx, http.MethodGet, "/vector_stores", query, nil)
	if err != nil {
		return nil, err
	}
	return dataRecords(rec), nil
}

func (c *Client) SearchVectorStore(ctx context.Context, vectorStoreID string, in provider.SearchInput) ([]provider.Record, error) {
	body := map[string]interface{}{"query": in.Query}
	if in.Filters != nil {
		body["filters"] = in.Filters
	}
	if in.MaxNumResults > 0 {
		body["max_num_results"] = in.MaxNumResults
	}
	if in.RankingOptions != nil {
		body["ranking_options"] = in.RankingOptions
	}
	if in.RewriteQuery != nil {
		body["rewrite_query"] = *in.RewriteQuery
	}
	rec, err := c.doJSON(ctx, http.MethodPost, "/vector_stores/"+url.PathEscape(vectorStoreID)+"/search", nil, body)
	if err != nil {
		return nil, err
	}
	return dataRecords(rec), nil
}

func (c *Client) AttachFileToVectorStore(ctx context.Context, vectorStoreID, fileID string, attributes map[string]interface{}, chunkingStrategy map[string]interface{}) (provider.Record, error) {
	body := map[string]interface{}{"file_id": fileID}
	if attributes != nil {
		body["attributes"] = attributes
	}
	if chunkingStrategy != nil {
		body["chunking_strategy"] = chunkingStrategy
	}
	return c.doJSON(ctx, http.MethodPost, "/vector_stores/"+url.PathEscape(vectorStoreID)+"/files", nil, body)
}

func (c *Client) DetachFileFromVectorStore(ctx context.Context, vectorStoreID, fileID string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/vector_stores/"+url.PathEscape(vectorStoreID)+"/files/"+url.PathEscape(fileID), nil, nil)
	return err
}

func (c *Client) ListVectorStoreFiles(ctx context.Context, vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
	query := url.Values{}
	if in.Limit > 0 {
		query.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.After != "" {
		query.Set("after", in.After)
	}
	if in.Before != "" {
		query.Set("before", in.Before)
	}
	if in.Order != "" {
		query.Set("order", in.Order)
	}
	if in.StatusFilter != "" {
		query.Set("filter", in.StatusFilter)
	}
	rec, err := c.doJSON(ctx, http.MethodGet, "/vector_stores/"+url.PathEscape(vectorStoreID)+"/files", query, nil)
	if err != nil {
		return nil, err
	}
	return dataRecords(rec), nil
}

func (c *Client) RetrieveVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (provider.Record, error) {
	return c.doJSON(ctx, http.MethodGet, "/vector_stores/"+url.PathEscape(vectorStoreID)+"/files/"+url.PathEscape(fileID), nil, nil)
}

func (c *Client) RetrieveVectorStoreFileContent(ctx context.Context, vectorStoreID, fileID string) ([]provider.Record, error) {
	rec, err := c.doJSON(ctx, http.MethodGet, "/vector_stores/"+url.PathEscape(vectorStoreID)+"/files/"+url.PathEscape(fileID)+"/content", nil, nil)
	if err != nil {
		return nil, err
	}
	return dataRecords(rec), nil
}

func (c *Client) CreateFile(ctx context.Context, localPath string, meta map[string]string) (provider.Record, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open upload file failed: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return nil, fmt.Errorf("build multipart form failed: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy upload bytes failed: %w", err)
	}

	purpose := "assistants"
	if meta != nil && meta["purpose"] != "" {
		purpose = meta["purpose"]
	}
	if err := writer.WriteField("purpose", purpose); err != nil {
		return nil, fmt.Errorf("write purpose field failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart form failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload request failed: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload response status %d: %s", resp.StatusCode, string(raw))
	}

	var rec provider.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse upload response failed: %w", err)
	}
	return rec, nil
}

func (c *Client) RetrieveFile(ctx context.Context, fileID string) (provider.Record, error) {
	return c.doJSON(ctx, http.MethodGet, "/files/"+url.PathEscape(fileID), nil, nil)
}

func (c *Client) RetrieveFileContent(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+url.PathEscape(fileID)+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("build file content request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file content request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file content failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("file content status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func (c *Client) ListFiles(ctx context.Context, limit int) ([]provider.Record, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	rec, err := c.doJSON(ctx, http.MethodGet, "/files", query, nil)
	if err != nil {
		return nil, err
	}
	return dataRecords(rec), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body interface{}) (provider.Record, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request failed: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("response status %d for %s %s: %s", resp.StatusCode, method, path, string(raw))
	}
	if len(raw) == 0 {
		return provider.Record{}, nil
	}

	var rec provider.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse response json failed: %w", err)
	}
	return rec, nil
}

// dataRecords unwraps the {"data": [...]} envelope list endpoints use.
func dataRecords(rec provider.Record) []provider.Record {
	items, ok := rec["data"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]provider.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, provider.Record(m))
		}
	}
	return out
}
