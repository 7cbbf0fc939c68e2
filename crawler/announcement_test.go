package crawler

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIsAnnualReportTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"full report", "2024年年度报告", true},
		{"bank style", "某某银行2024年度报告", true},
		{"abstract rejected", "2024年年度报告摘要", false},
		{"abstract updated rejected", "2024年年度报告摘要（更新后）", false},
		{"about notice rejected", "关于披露2024年年度报告的公告", false},
		{"report before about kept", "2024年年度报告及关于利润分配的说明", true},
		{"unrelated notice", "关于召开股东大会的通知", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAnnualReportTitle(tt.title); got != tt.want {
				t.Errorf("IsAnnualReportTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestParseReportYear(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"2024年年度报告", 2024},
		{"2024年度报告", 2024},
		{"2024 年度报告", 2024},
		{"某某科技2023年年度报告（修订版）", 2023},
		{"2025年半年度报告", 2025},
		{"年度报告", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseReportYear(tt.title); got != tt.want {
			t.Errorf("ParseReportYear(%q) = %d, want %d", tt.title, got, tt.want)
		}
	}
}

func TestFlexTimeUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		zero bool
	}{
		{"epoch millis number", `1714262400000`, time.UnixMilli(1714262400000), false},
		{"epoch millis string", `"1714262400000"`, time.UnixMilli(1714262400000), false},
		{"epoch seconds", `1714262400`, time.Unix(1714262400, 0), false},
		{"date string", `"2024-04-28"`, time.Date(2024, 4, 28, 0, 0, 0, 0, time.Local), false},
		{"datetime string", `"2024-04-28 18:30:00"`, time.Date(2024, 4, 28, 0, 0, 0, 0, time.Local), false},
		{"null", `null`, time.Time{}, true},
		{"empty string", `""`, time.Time{}, true},
		{"garbage", `"soon"`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexTime
			if err := json.Unmarshal([]byte(tt.in), &ft); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if tt.zero {
				if !ft.IsZero() {
					t.Errorf("expected zero time, got %v", ft.Time)
				}
				return
			}
			if !ft.Equal(tt.want) {
				t.Errorf("got %v, want %v", ft.Time, tt.want)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{
		Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"inside", time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC), true},
		{"at start", w.Start, true},
		{"at end", w.End, true},
		{"before", time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC), false},
		{"after", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"zero never inside", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}

	if got := w.DateRange(); got != "2025-04-01~2025-04-30" {
		t.Errorf("DateRange() = %q", got)
	}
}

func TestClassifyPage(t *testing.T) {
	windowStart := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	inWindow := FlexTime{Time: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)}
	older := FlexTime{Time: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name string
		anns []Announcement
		want pageAction
	}{
		{"all inside", []Announcement{{Time: inWindow}, {Time: inWindow}}, pageContinue},
		{"straddles boundary", []Announcement{{Time: inWindow}, {Time: older}}, pageStopAfterThis},
		{"all older", []Announcement{{Time: older}, {Time: older}}, pageStopNow},
		{"empty page", nil, pageContinue},
		{"zero timestamps ignored", []Announcement{{}, {Time: inWindow}}, pageContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyPage(tt.anns, windowStart); got != tt.want {
				t.Errorf("classifyPage = %v, want %v", got, tt.want)
			}
		})
	}
}
