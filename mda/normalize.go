package mda

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	reBlankRuns  = regexp.MustCompile(`\n+`)
	rePageNumber = regexp.MustCompile(`^\d{1,4}$`)
	rePageOfN    = regexp.MustCompile(`^\d{1,4}\s*/\s*\d{1,4}$`)
	reTableRule  = regexp.MustCompile(`^[-+|]{3,}$`)
)

// Normalize cleans raw page text into the line-oriented form the section
// slicers operate on: unified newlines, page furniture stripped, all spaces
// removed, blank runs compressed. Heading regexes depend on headings sitting
// alone at line starts, which this guarantees.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x0c", "\n")
	text = reBlankRuns.ReplaceAllString(text, "\n")

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isPageFurniture(line) {
			continue
		}
		lines = append(lines, line)
	}

	text = strings.Join(lines, "\n")
	text = strings.ReplaceAll(text, " ", "")
	text = strings.ReplaceAll(text, "　", "")
	return reBlankRuns.ReplaceAllString(text, "\n")
}

// isPageFurniture recognizes the header/footer noise annual report PDFs
// repeat on every page: bare page numbers, "14/248" style counters, company
// name headers, and 年度报告 running titles.
func isPageFurniture(line string) bool {
	if rePageNumber.MatchString(line) || rePageOfN.MatchString(line) {
		return true
	}
	if strings.Contains(line, "年度报告") && strings.Contains(line, "股份有限公司") {
		return true
	}
	if strings.HasPrefix(line, "公司代码：") || strings.HasPrefix(line, "公司简称：") || strings.Contains(line, "公司代码：") {
		return true
	}
	if (strings.HasSuffix(line, "股份有限公司") || strings.HasSuffix(line, "有限公司")) && utf8.RuneCountInString(line) <= 30 {
		return true
	}
	// Running title lines like "2024年年度报告" split from the company name
	if strings.Contains(line, "年度报告") && utf8.RuneCountInString(line) <= 20 {
		return true
	}
	if reTableRule.MatchString(line) {
		return true
	}
	return strings.Contains(line, "年度报告全文")
}
