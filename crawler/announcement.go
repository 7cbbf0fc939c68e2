package crawler

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Exchange identifies one disclosure column on the source site.
type Exchange struct {
	Column string // query column: szse / sse
	Plate  string // market plate: sz / sh
}

// Exchanges covers the whole market: Shenzhen and Shanghai listings.
var Exchanges = []Exchange{
	{Column: "szse", Plate: "sz"},
	{Column: "sse", Plate: "sh"},
}

// Announcement is one disclosure entry from the announcement query endpoint.
type Announcement struct {
	SecCode    string   `json:"secCode"`
	SecName    string   `json:"secName"`
	Title      string   `json:"announcementTitle"`
	Time       FlexTime `json:"announcementTime"`
	AdjunctURL string   `json:"adjunctUrl"`
}

// queryResponse is the JSON envelope of one result page.
type queryResponse struct {
	Announcements []Announcement `json:"announcements"`
	HasMore       bool           `json:"hasMore"`
}

// FlexTime tolerates the three timestamp shapes the endpoint emits: epoch
// millis as a number, epoch millis as a digit string, and "YYYY-MM-DD..."
// date strings. Unparseable values decode to the zero time.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (ft *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 { // millis
			ft.Time = time.UnixMilli(n)
		} else {
			ft.Time = time.Unix(n, 0)
		}
		return nil
	}

	if len(s) >= 10 {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], time.Local); err == nil {
			ft.Time = t
			return nil
		}
	}
	return nil
}

var _ json.Unmarshaler = (*FlexTime)(nil)

var (
	reYearInTitle = regexp.MustCompile(`(20\d{2})\s*年?\s*年度报告`)
	reYearPrefix  = regexp.MustCompile(`^(20\d{2})`)
)

// IsAnnualReportTitle reports whether a disclosure title is a full annual
// report. Abstracts (摘要) and about-notices ("关于披露年度报告的公告") are
// rejected.
func IsAnnualReportTitle(title string) bool {
	if !strings.Contains(title, "年度报告") {
		return false
	}
	if strings.Contains(title, "摘要") {
		return false
	}
	if idx := strings.Index(title, "关于"); idx >= 0 {
		if !strings.Contains(title[:idx], "年度报告") {
			return false
		}
	}
	return true
}

// ParseReportYear extracts the fiscal year from an announcement title.
// Handles "2025年年度报告", "2025年度报告", "2025 年度报告" and titles that
// simply start with the year. Returns 0 when no year is found.
func ParseReportYear(title string) int {
	if m := reYearInTitle.FindStringSubmatch(title); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	if m := reYearPrefix.FindStringSubmatch(title); m != nil {
		year, _ := strconv.Atoi(m[1])
		return year
	}
	return 0
}

// Window is the crawl time window: announcements outside [Start, End] are
// skipped even when the server ignores the seDate filter.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window. The zero time is never
// inside: an announcement whose timestamp cannot be parsed is skipped rather
// than risked against historical backfill.
func (w Window) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// DateRange renders the window in the endpoint's seDate format.
func (w Window) DateRange() string {
	return w.Start.Format("2006-01-02") + "~" + w.End.Format("2006-01-02")
}

// pageBounds returns the oldest and newest announcement timestamps on a
// page; zero timestamps are ignored.
func pageBounds(anns []Announcement) (oldest, newest time.Time) {
	for _, a := range anns {
		t := a.Time.Time
		if t.IsZero() {
			continue
		}
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
		if newest.IsZero() || t.After(newest) {
			newest = t
		}
	}
	return oldest, newest
}

// pageAction tells the paging loop what to do after fetching a page.
type pageAction int

const (
	pageContinue      pageAction = iota
	pageStopAfterThis            // oldest entry predates the window: later pages only get older
	pageStopNow                  // even the newest entry predates the window
)

// classifyPage applies the original anti-runaway paging rules against the
// window's lower bound.
func classifyPage(anns []Announcement, windowStart time.Time) pageAction {
	oldest, newest := pageBounds(anns)
	if !newest.IsZero() && newest.Before(windowStart) {
		return pageStopNow
	}
	if !oldest.IsZero() && oldest.Before(windowStart) {
		return pageStopAfterThis
	}
	return pageContinue
}
