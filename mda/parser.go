// Package mda extracts the Management Discussion & Analysis section (第三节
// 管理层讨论与分析) from annual report text. The source PDF is consumed one
// page at a time: the parser first locates the section through the table of
// contents, then falls back to a body scan, collects the section text, and
// slices out the management overview and future-outlook discussions.
package mda

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PageSource yields per-page plain text. Pages are numbered from 1.
// pdfutil.Document satisfies this; tests feed synthetic pages.
type PageSource interface {
	NumPages() int
	PageText(page int) (string, error)
}

// Sections holds the extracted MDA text. Industry is reserved and stays nil
// for now; Business and Future are nil when the slicing floors reject them.
type Sections struct {
	Industry *string
	Business *string
	Future   *string
	FullText string
}

// ErrSectionNotFound means neither the table of contents nor a body scan
// located the 第三节 heading.
var ErrSectionNotFound = errors.New("mda: section three not found")

const (
	tocScanPages  = 20  // TOC must sit in the first pages of the report
	bodyScanPages = 200 // body scan and section collection bound
	minTOCPage    = 5   // printed page numbers below this are TOC misreads

	minOverviewRunes = 500 // shorter overviews fall back to the full section
	minFutureRunes   = 200 // shorter future sections are discarded
)

var (
	reTOCEntry       = regexp.MustCompile(`第三节\s*管理层讨论与分析[\.·…\s]{2,200}(\d{1,4})`)
	reSectionThree   = regexp.MustCompile(`第三节\s*管理层讨论与分析`)
	reSectionFour    = regexp.MustCompile(`第\s*四\s*节|第四节`)
	reCoreCompetence = regexp.MustCompile(`(?:^|\n)\s*(?:[一二三四五六七八九十]{1,3}|\d{1,2})[、\.．:：]\s*[^\n]{0,80}核心竞争力分析`)
)

// overviewStopTitles end the management-overview slice.
var overviewStopTitles = []string{
	"报告期内核心竞争力分析",
	"核心竞争力分析",
	"主营业务分析",
	"公司治理",
	"重要事项",
	"公司未来发展的展望",
	"未来发展的展望",
	"风险因素",
	"风险提示",
	"经营情况讨论与分析",
}

var futureKeywords = []string{
	"公司未来发展的展望",
	"未来发展的展望",
	"未来发展展望",
	"发展规划",
	"未来规划",
}

func isTOCPage(text string) bool {
	return strings.Contains(text, "目录") || strings.Contains(text, "目 录")
}

func pageText(src PageSource, page int) string {
	raw, err := src.PageText(page)
	if err != nil || raw == "" {
		return ""
	}
	return Normalize(raw)
}

// ExtractMDA locates section three of an annual report and returns its
// sliced sections together with the full section text.
func ExtractMDA(src PageSource) (*Sections, error) {
	startPage := locateSectionStart(src)
	if startPage == 0 {
		return nil, ErrSectionNotFound
	}

	full := collectSection(src, startPage)
	if full == "" {
		return nil, ErrSectionNotFound
	}

	// Hard-cut to the section heading so leftover front matter (重要提示,
	// TOC fragments) cannot poison the heading slicers.
	if loc := reSectionThree.FindStringIndex(full); loc != nil {
		full = strings.TrimSpace(full[loc[0]:])
	}

	overview := sliceToNextTitledHeading(full, 0, overviewStopTitles)
	if overview == "" {
		overview = strings.TrimSpace(full)
	}

	// Some PDFs split the heading line so the titled-heading pass misses the
	// stop. Force a cut before any core-competitiveness heading.
	if loc := reCoreCompetence.FindStringIndex(full); loc != nil && loc[0] > 0 {
		overview = strings.TrimSpace(full[:loc[0]])
	}

	future := extractSectionByKeywords(full, futureKeywords, nil, nil)

	if utf8.RuneCountInString(overview) < minOverviewRunes {
		overview = strings.TrimSpace(full)
	}
	if utf8.RuneCountInString(future) < minFutureRunes {
		future = ""
	}

	sections := &Sections{FullText: full}
	if overview != "" {
		sections.Business = &overview
	}
	if future != "" {
		sections.Future = &future
	}
	return sections, nil
}

// locateSectionStart finds the page where section three begins, TOC first and
// body scan second. Returns 0 when not found.
func locateSectionStart(src PageSource) int {
	tocPage := 0
	for p := 1; p <= tocScanPages && p <= src.NumPages(); p++ {
		if t := pageText(src, p); t != "" && isTOCPage(t) {
			tocPage = p
			break
		}
	}

	tocFirst, tocLast := 1, 6
	if tocPage > 0 {
		tocFirst = tocPage
		tocLast = min(tocPage+3, tocScanPages)
	}
	var tocText strings.Builder
	for p := tocFirst; p <= tocLast && p <= src.NumPages(); p++ {
		tocText.WriteString(pageText(src, p))
		tocText.WriteString("\n")
	}

	startPage := 0
	if m := reTOCEntry.FindStringSubmatch(tocText.String()); m != nil {
		if printed, err := strconv.Atoi(m[1]); err == nil && printed >= minTOCPage {
			startPage = printed
		}
	}

	// Validate the TOC hit: a start page that is itself a TOC page, or that
	// falls inside the TOC range, is a misread.
	if startPage > 0 {
		check := pageText(src, startPage)
		if check != "" && isTOCPage(check) {
			startPage = 0
		}
		if startPage >= tocFirst && startPage <= tocLast {
			startPage = 0
		}
	}

	if startPage == 0 {
		scanStart := 1
		if tocPage > 0 {
			scanStart = tocPage + 1
		}
		for p := scanStart; p <= bodyScanPages && p <= src.NumPages(); p++ {
			t := pageText(src, p)
			if t == "" || isTOCPage(t) {
				continue
			}
			if reSectionThree.MatchString(t) {
				startPage = p
				break
			}
		}
	}

	return startPage
}

// collectSection gathers normalized text from the start page until a page
// belonging to section four appears.
func collectSection(src PageSource, startPage int) string {
	var sb strings.Builder
	for p := startPage; p < startPage+bodyScanPages && p <= src.NumPages(); p++ {
		t := pageText(src, p)
		if t == "" {
			continue
		}
		if reSectionFour.MatchString(t) {
			break
		}
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String()
}
