package crawler

import (
	"strings"
	"testing"
	"time"
)

const listingHTML = `
<html><body>
<ul class="announcements">
  <li>
    <a href="/finalpage/2025-04-12/1219000001.PDF">600000 浦发银行：2024年年度报告</a>
    <span class="date">2025-04-12</span>
  </li>
  <li>
    <a href="/finalpage/2025-04-13/1219000002.pdf" data-date="2025-04-13">000001 平安银行：2024年年度报告</a>
  </li>
  <li>
    <a href="/notice/2025-04-12/page.html">600000 浦发银行：关于召开股东大会的通知</a>
  </li>
  <li>
    <a href="/finalpage/2025-04-14/1219000003.pdf"></a>
  </li>
</ul>
</body></html>`

func TestParseListing(t *testing.T) {
	anns, err := ParseListing(strings.NewReader(listingHTML))
	if err != nil {
		t.Fatalf("ParseListing failed: %v", err)
	}
	if len(anns) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(anns))
	}

	first := anns[0]
	if first.SecCode != "600000" {
		t.Errorf("SecCode = %q, want 600000", first.SecCode)
	}
	if first.SecName != "浦发银行" {
		t.Errorf("SecName = %q, want 浦发银行", first.SecName)
	}
	if first.Title != "2024年年度报告" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.AdjunctURL != "finalpage/2025-04-12/1219000001.PDF" {
		t.Errorf("AdjunctURL = %q", first.AdjunctURL)
	}
	want := time.Date(2025, 4, 12, 0, 0, 0, 0, time.Local)
	if !first.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", first.Time.Time, want)
	}

	second := anns[1]
	if second.SecCode != "000001" {
		t.Errorf("SecCode = %q, want 000001", second.SecCode)
	}
	if second.Time.IsZero() {
		t.Error("expected date from data-date attribute")
	}
}

func TestParseListingEmpty(t *testing.T) {
	anns, err := ParseListing(strings.NewReader("<html><body><p>维护中</p></body></html>"))
	if err != nil {
		t.Fatalf("ParseListing failed: %v", err)
	}
	if len(anns) != 0 {
		t.Errorf("expected no entries, got %d", len(anns))
	}
}
