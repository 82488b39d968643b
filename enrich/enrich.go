// Package enrich fills missing event descriptions by extracting
// readable text from each event's detail page.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"venuefeed/model"
)

const defaultMaxLen = 280

// Enricher extracts readable page text for events that lack a
// description.
type Enricher struct {
	httpClient *http.Client
	maxLen     int
	logger     *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		e.httpClient.Timeout = d
	}
}

// WithMaxLength sets the maximum description length to keep.
func WithMaxLength(n int) Option {
	return func(e *Enricher) {
		e.maxLen = n
	}
}

// New creates an Enricher.
func New(logger *slog.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxLen:     defaultMaxLen,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events fills in descriptions for events that have a URL but no
// description. Failures are logged and skipped so one bad page never
// blocks the run.
func (e *Enricher) Events(ctx context.Context, events []model.Event) {
	for i := range events {
		if events[i].Description != "" || events[i].URL == "" {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		desc, err := e.describe(ctx, events[i].URL)
		if err != nil {
			e.logger.Debug("enrichment failed",
				"url", events[i].URL,
				"error", err)
			continue
		}
		events[i].Description = desc
	}
}

func (e *Enricher) describe(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; venuefeed/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	content := strings.Join(strings.Fields(article.TextContent), " ")
	if content == "" {
		return "", fmt.Errorf("no readable content")
	}

	if len(content) > e.maxLen {
		cut := strings.LastIndex(content[:e.maxLen], " ")
		if cut <= 0 {
			cut = e.maxLen
		}
		content = content[:cut] + "…"
	}

	return content, nil
}
