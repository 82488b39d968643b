// Package describe generates a short playful description of a day's
// events using the Gemini API.
package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"venuefeed/model"
)

const (
	defaultModel   = "gemini-2.0-flash-lite"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
)

// Describer produces event-day descriptions via Gemini.
type Describer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Describer.
type Option func(*Describer)

// WithModel sets the Gemini model to use.
func WithModel(model string) Option {
	return func(d *Describer) {
		d.model = model
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(d *Describer) {
		d.baseURL = url
	}
}

// New creates a Gemini-backed Describer.
func New(apiKey string, opts ...Option) *Describer {
	d := &Describer{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Today generates a haiku for the events whose start falls on the same
// calendar day as now, in each event's own zone. It returns "" with no
// error when nothing happens today.
func (d *Describer) Today(ctx context.Context, siteName string, now time.Time, events []model.Event) (string, error) {
	var todays []model.Event
	for _, ev := range events {
		ey, em, ed := ev.StartAt.Date()
		ny, nm, nd := now.In(ev.StartAt.Location()).Date()
		if ey == ny && em == nm && ed == nd {
			todays = append(todays, ev)
		}
	}
	if len(todays) == 0 {
		return "", nil
	}

	prompt := buildPrompt(siteName, now, todays)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{{Text: prompt}},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", d.baseURL, d.model, d.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return parseGeminiResponse(&geminiResp)
}

func buildPrompt(siteName string, now time.Time, events []model.Event) string {
	var lines []string
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("- %s at %s", ev.Title, ev.SourceName))
	}

	return fmt.Sprintf(`Write a haiku (three lines, roughly 5-7-5 syllables) about today's lineup at %s on %s:

%s

Respond with the haiku only, no preamble and no markdown.`,
		siteName, now.Format("Monday, January 2"), strings.Join(lines, "\n"))
}

func parseGeminiResponse(resp *geminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no parts in candidate")
	}

	text := strings.TrimSpace(candidate.Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty haiku in response")
	}
	return text, nil
}

// Gemini API types

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}
