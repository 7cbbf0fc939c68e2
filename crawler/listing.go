package crawler

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// reListingCode matches a leading 6-digit stock code in a listing entry,
// e.g. "600000 浦发银行：2024年年度报告".
var reListingCode = regexp.MustCompile(`^(\d{6})\s*([^：:]*)[：:]?`)

// ParseListing extracts annual report entries from a static announcement
// listing page. This is the fallback source when the query endpoint is down:
// every anchor pointing at a PDF is a candidate, the visible text carries
// "<code> <name>：<title>", and a sibling or title attribute may carry the
// disclosure date.
func ParseListing(r io.Reader) ([]Announcement, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var anns []Announcement
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(strings.ToLower(href), ".pdf") {
			return
		}

		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		ann := Announcement{AdjunctURL: strings.TrimPrefix(href, "/"), Title: text}
		if m := reListingCode.FindStringSubmatch(text); m != nil {
			ann.SecCode = m[1]
			ann.SecName = strings.TrimSpace(m[2])
			ann.Title = strings.TrimSpace(text[len(m[0]):])
		}

		// Disclosure date from the entry's date cell, falling back to a
		// title attribute
		dateText := strings.TrimSpace(sel.Parent().Find("span.date, td.date").First().Text())
		if dateText == "" {
			dateText, _ = sel.Attr("data-date")
		}
		if len(dateText) >= 10 {
			if t, err := time.ParseInLocation("2006-01-02", dateText[:10], time.Local); err == nil {
				ann.Time = FlexTime{Time: t}
			}
		}

		if ann.Title != "" && ann.AdjunctURL != "" {
			anns = append(anns, ann)
		}
	})
	return anns, nil
}

// FetchListing downloads and parses the fallback listing page.
func (c *Client) FetchListing(ctx context.Context, listingURL string) ([]Announcement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.queryClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing: status %d", resp.StatusCode)
	}

	anns, err := ParseListing(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Printf("📄 Listing fallback yielded %d entries", len(anns))
	return anns, nil
}
