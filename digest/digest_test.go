package digest

import (
	"strings"
	"testing"
	"time"

	"reportclaw/config"
)

func strPtr(s string) *string { return &s }

func TestRender(t *testing.T) {
	d := &Digest{cfg: config.DigestConfig{MaxSectionLen: 1200}}
	publish := time.Date(2025, 4, 12, 0, 0, 0, 0, time.Local)
	now := time.Date(2025, 4, 13, 8, 0, 0, 0, time.Local)

	entries := []Entry{
		{
			StockCode:   "600000",
			StockName:   "浦发银行",
			ReportYear:  2024,
			PublishDate: &publish,
			Business:    strPtr("一、经营情况讨论与分析\n报告期内公司经营稳健。"),
			Future:      strPtr("十一、公司未来发展的展望\n继续深耕主业。"),
		},
		{
			StockCode:  "000001",
			StockName:  "平安银行",
			ReportYear: 2024,
		},
	}

	subject, body := d.Render(entries, now)

	if subject != "年报摘录汇总 2025-04-13（2 家）" {
		t.Errorf("subject = %q", subject)
	}
	for _, want := range []string{
		"600000 浦发银行（2024年年报）",
		"披露日期：2025-04-12",
		"【经营情况】",
		"【未来展望】",
		"000001 平安银行（2024年年报）",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Count(body, "【经营情况】") != 1 {
		t.Error("entry without sections should not render section headers")
	}
}

func TestRenderTruncatesSections(t *testing.T) {
	d := &Digest{cfg: config.DigestConfig{MaxSectionLen: 10}}
	entries := []Entry{{
		StockCode:  "600000",
		ReportYear: 2024,
		Business:   strPtr(strings.Repeat("长", 50)),
	}}

	_, body := d.Render(entries, time.Now())
	if !strings.Contains(body, strings.Repeat("长", 10)+"……") {
		t.Error("expected truncated section with ellipsis")
	}
	if strings.Contains(body, strings.Repeat("长", 11)) {
		t.Error("section exceeds the configured cap")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than cap", "经营稳健", 10, "经营稳健"},
		{"exactly at cap", "经营稳健", 4, "经营稳健"},
		{"over cap", "经营情况讨论与分析", 4, "经营情况……"},
		{"zero cap keeps all", "经营稳健", 0, "经营稳健"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateRunes(tt.in, tt.n); got != tt.want {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestWindowFloors(t *testing.T) {
	now := time.Date(2025, 4, 13, 9, 30, 45, 0, time.Local)
	midnight := time.Date(2025, 4, 13, 0, 0, 0, 0, time.Local)

	if got := startOfDay(now); !got.Equal(midnight) {
		t.Errorf("startOfDay = %v, want %v", got, midnight)
	}

	// The today-only floor and the absent-watermark fallback must agree:
	// without a reachable state store the incremental window starts at
	// today 00:00 as well.
	d := &Digest{}
	if got := d.lastSentAt(now); !got.Equal(midnight) {
		t.Errorf("lastSentAt fallback = %v, want %v", got, midnight)
	}
}

func TestNextFiring(t *testing.T) {
	loc := time.Local

	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "before the hour fires today",
			now:  time.Date(2025, 4, 13, 6, 30, 0, 0, loc),
			hour: 8,
			want: time.Date(2025, 4, 13, 8, 0, 0, 0, loc),
		},
		{
			name: "after the hour fires tomorrow",
			now:  time.Date(2025, 4, 13, 9, 0, 0, 0, loc),
			hour: 8,
			want: time.Date(2025, 4, 14, 8, 0, 0, 0, loc),
		},
		{
			name: "exactly at the hour fires tomorrow",
			now:  time.Date(2025, 4, 13, 8, 0, 0, 0, loc),
			hour: 8,
			want: time.Date(2025, 4, 14, 8, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextFiring(tt.now, tt.hour); !got.Equal(tt.want) {
				t.Errorf("nextFiring = %v, want %v", got, tt.want)
			}
		})
	}
}
