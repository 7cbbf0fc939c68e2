package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const userAgent = "Mozilla/5.0"

// Client talks to the disclosure site: the announcement query endpoint and
// the static file host the adjunct PDF paths hang off.
type Client struct {
	queryURL    string
	fileBaseURL string
	maxRetry    int

	queryClient    *http.Client
	downloadClient *http.Client
}

// NewClient creates a new disclosure site client
func NewClient(queryURL, fileBaseURL string, maxRetry int) *Client {
	if maxRetry <= 0 {
		maxRetry = 1
	}
	return &Client{
		queryURL:    queryURL,
		fileBaseURL: fileBaseURL,
		maxRetry:    maxRetry,
		// PDF downloads run far longer than query posts
		queryClient:    &http.Client{Timeout: 25 * time.Second},
		downloadClient: &http.Client{Timeout: 65 * time.Second},
	}
}

// FetchPage queries one page of annual report announcements for an exchange
// column. Retries with linear backoff; after the last attempt the error is
// returned so the caller can give up on the exchange.
func (c *Client) FetchPage(ctx context.Context, ex Exchange, page, pageSize int, window Window) ([]Announcement, error) {
	form := url.Values{
		"pageNum":   {strconv.Itoa(page)},
		"pageSize":  {strconv.Itoa(pageSize)},
		"column":    {ex.Column},
		"plate":     {ex.Plate},
		"tabName":   {"fulltext"},
		"category":  {"category_ndbg_szsh;"},
		"seDate":    {window.DateRange()},
		"isHLtitle": {"false"},
		"searchkey": {"年度报告"},
		"secid":     {""},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetry; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("X-Requested-With", "XMLHttpRequest")

		resp, err := c.queryClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			var decoded queryResponse
			err = json.NewDecoder(resp.Body).Decode(&decoded)
			resp.Body.Close()
			if err == nil {
				return decoded.Announcements, nil
			}
			lastErr = fmt.Errorf("decode page %d: %w", page, err)
		} else if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			lastErr = fmt.Errorf("query page %d: status %d", page, resp.StatusCode)
		}

		log.Printf("⚠️  [%s] page %d request failed attempt=%d/%d: %v", ex.Column, page, attempt, c.maxRetry, lastErr)
		if attempt < c.maxRetry {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return nil, lastErr
}

// DownloadPDF fetches an adjunct PDF into downloadDir, keyed by the last
// path element of the adjunct URL. An already-downloaded file is reused.
// Returns the local file path.
func (c *Client) DownloadPDF(ctx context.Context, adjunctURL, downloadDir string) (string, error) {
	fileName := adjunctURL
	if idx := strings.LastIndex(adjunctURL, "/"); idx >= 0 {
		fileName = adjunctURL[idx+1:]
	}
	filePath := filepath.Join(downloadDir, fileName)

	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil
	}

	pdfURL := c.fileBaseURL + adjunctURL

	var lastErr error
	for attempt := 1; attempt <= c.maxRetry; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.downloadClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			err = writeFile(filePath, resp.Body)
			resp.Body.Close()
			if err != nil {
				return "", err
			}
			return filePath, nil
		} else if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			lastErr = fmt.Errorf("download %s: status %d", pdfURL, resp.StatusCode)
		}

		log.Printf("⚠️  PDF download failed attempt=%d/%d: %v", attempt, c.maxRetry, lastErr)
		if attempt < c.maxRetry {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return "", lastErr
}

func writeFile(path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
