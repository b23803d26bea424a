// Package ner provides an Extractor that calls the remote NER tagging server
// over HTTP. Every failure mode is reported as sanitize.ErrRemoteUnavailable
// so the masker can fall back to its local patterns.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gonkalabs/eraseme/internal/sanitize"
)

// DefaultTimeout bounds a single tagging request.
const DefaultTimeout = 60 * time.Second

// Client calls the NER server's tagging endpoint.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// New creates a NER Client posting to the given endpoint URL
// (e.g. "http://ner.internal:8000/ner"). A timeout of zero or less selects
// DefaultTimeout.
func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:     url,
		timeout: timeout,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type tagRequest struct {
	Text string `json:"text"`
}

// tagResponse is {"ner_result": [[word, tag], ...]}. The pointer
// distinguishes a missing field from an empty list.
type tagResponse struct {
	Result *[][]string `json:"ner_result"`
}

// Extract sends text to the NER server and returns its (word, tag) pairs in
// document order, "O" rows included. It is safe for concurrent use.
func (c *Client) Extract(ctx context.Context, text string) ([]sanitize.Span, error) {
	body, err := json.Marshal(tagRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: %w: request: %w", sanitize.ErrRemoteUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner: %w: %w", sanitize.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody [512]byte
		n, _ := io.ReadFull(resp.Body, errBody[:])
		return nil, fmt.Errorf("ner: %w: status %d: %s",
			sanitize.ErrRemoteUnavailable, resp.StatusCode, string(errBody[:n]))
	}

	var result tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: %w: decode: %w", sanitize.ErrRemoteUnavailable, err)
	}
	if result.Result == nil {
		return nil, fmt.Errorf("ner: %w: response has no ner_result", sanitize.ErrRemoteUnavailable)
	}

	rows := *result.Result
	spans := make([]sanitize.Span, 0, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("ner: %w: row %d has %d fields, want 2",
				sanitize.ErrRemoteUnavailable, i, len(row))
		}
		spans = append(spans, sanitize.Span{Text: row[0], Tag: row[1]})
	}
	return spans, nil
}
