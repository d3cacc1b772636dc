package shoppinglist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type remoteRepository struct {
	url      string
	client   *http.Client
	defaults Defaults
	logger   *slog.Logger
}

// NewRemoteRepository reads and writes the document through another
// instance's /api/data endpoint. baseURL is the server root, e.g.
// "http://lists.local:8080".
func NewRemoteRepository(baseURL string, client *http.Client, defaults Defaults, logger *slog.Logger) Repository {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &remoteRepository{
		url:      strings.TrimRight(baseURL, "/") + "/api/data",
		client:   client,
		defaults: defaults,
		logger:   logger,
	}
}

func (r *remoteRepository) Load(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch document: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := DecodeDocument(data, r.defaults)
	if err != nil {
		r.logger.Warn("remote document is corrupt, using defaults", "url", r.url, "error", err)
		return r.defaults.Document(), nil
	}
	return doc, nil
}

func (r *remoteRepository) Save(ctx context.Context, doc *Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	defer resp.Body.Close()

	var result SaveResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to send document: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !result.Success {
		return fmt.Errorf("failed to send document: status %d: %s", resp.StatusCode, result.Message)
	}
	return nil
}
