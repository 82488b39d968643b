package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"venuefeed/model"
)

const userAgent = "venuefeed/1.0 (schedule aggregator)"

// statusError maps a non-200 response to a kind-tagged error so the
// coordinator can tell retryable server failures from dead ends.
func statusError(status int, rawURL string) error {
	switch {
	case status >= 500:
		return model.Tagf(model.KindServerError, "HTTP %d: %s", status, rawURL)
	default:
		return model.Tagf(model.KindClientError, "HTTP %d: %s", status, rawURL)
	}
}

func get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, model.Tagf(model.KindClientError, "create request for %s: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		// Transport-level failures are left untagged; the coordinator
		// classifies them from the underlying net error.
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusError(resp.StatusCode, rawURL)
	}
	return resp, nil
}

// fetchDocument fetches a page and parses it into a goquery document.
func fetchDocument(ctx context.Context, client *http.Client, rawURL string) (*goquery.Document, error) {
	resp, err := get(ctx, client, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, model.Tagf(model.KindUnparseable, "empty response from %s", rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.Tagf(model.KindUnparseable, "parse HTML from %s: %v", rawURL, err)
	}
	return doc, nil
}

// fetchJSON issues a GET (with query params) or POST (with a JSON body)
// and decodes the response into out.
func fetchJSON(ctx context.Context, client *http.Client, method, rawURL string, params map[string]any, out any) error {
	var req *http.Request
	var err error

	switch method {
	case http.MethodPost:
		body, merr := json.Marshal(params)
		if merr != nil {
			return model.Tagf(model.KindClientError, "marshal params for %s: %v", rawURL, merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	default:
		full := rawURL
		if len(params) > 0 {
			q := url.Values{}
			for k, v := range params {
				q.Set(k, fmt.Sprint(v))
			}
			sep := "?"
			if strings.Contains(rawURL, "?") {
				sep = "&"
			}
			full = rawURL + sep + q.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	}
	if err != nil {
		return model.Tagf(model.KindClientError, "create request for %s: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, rawURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.Tagf(model.KindUnparseable, "decode JSON from %s: %v", rawURL, err)
	}
	return nil
}
