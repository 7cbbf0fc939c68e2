package mda

import (
	"fmt"
	"regexp"
	"strings"
)

// majorHeadingKeywords mark first-level headings that end a sliced section.
// Without them, a city sub-heading like "三、深圳" inside a table would cut
// the overview short.
var majorHeadingKeywords = []string{
	"核心竞争力", "核心竞争力分析",
	"主营业务分析", "主营业务",
	"非主营业务分析", "非主营业务",
	"资产及负债状况分析", "资产及负债", "资产负债",
	"投资状况分析", "投资状况",
	"公司治理", "重要事项",
	"公司未来发展的展望", "未来发展的展望",
	"行业情况", "行业状况", "所属行业", "所处行业", "行业概况",
	"从事的主要业务", "主要业务",
}

var (
	reSubBracket    = regexp.MustCompile(`\n\s*[（(][一二三四五六七八九十0-9]{1,3}[）)]`)
	reMajorOrdinal  = regexp.MustCompile(`\n\s*(?:[一二三四五六七八九十]{1,3}|\d{1,2})、`)
	reTitledHeading = regexp.MustCompile(`(?:^|\n)\s*([一二三四五六七八九十]{1,3}|\d{1,2})[、\.．:：]\s*([^\n]{1,80})`)
	reTitledBracket = regexp.MustCompile(`(?:^|\n)\s*[（(][一二三四五六七八九十0-9]{1,3}[）)]\s*([^\n]{1,80})`)
	reMajorHeading  = regexp.MustCompile(`\n\s*([一二三四五六七八九十]{1,3}|\d{1,2})、([^\n]{1,60})`)
)

var cnOrdinals = []string{
	"一", "二", "三", "四", "五", "六", "七", "八", "九", "十",
	"十一", "十二", "十三", "十四", "十五", "十六", "十七", "十八", "十九", "二十",
}

var cnToArabic = func() map[string]string {
	m := make(map[string]string, len(cnOrdinals))
	for i, cn := range cnOrdinals {
		m[cn] = fmt.Sprintf("%d", i+1)
	}
	return m
}()

var arabicToCN = func() map[string]string {
	m := make(map[string]string, len(cnToArabic))
	for cn, ar := range cnToArabic {
		m[ar] = cn
	}
	return m
}()

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// sliceToNextBracketHeading cuts from a （X）/(X) sub-heading to the next
// bracket heading at the same level or the next first-level ordinal heading.
func sliceToNextBracketHeading(text string, start int) string {
	if start < 0 || start >= len(text) {
		return ""
	}
	rest := text[start+1:]
	end := len(text)
	if loc := reSubBracket.FindStringIndex(rest); loc != nil {
		end = start + 1 + loc[0]
	}
	if loc := reMajorOrdinal.FindStringIndex(rest); loc != nil && start+1+loc[0] < end {
		end = start + 1 + loc[0]
	}
	return strings.TrimSpace(text[start:end])
}

// sliceToNextTitledHeading cuts from start to the next heading whose title
// contains one of titleKeywords. Both first-level ordinal headings (二、xxx)
// and bracket sub-headings (（三）xxx) qualify.
func sliceToNextTitledHeading(text string, start int, titleKeywords []string) string {
	if start < 0 || start >= len(text) {
		return ""
	}
	rest := text[start+1:]
	end := -1

	for _, m := range reTitledHeading.FindAllStringSubmatchIndex(rest, -1) {
		title := rest[m[4]:m[5]]
		if containsAny(title, titleKeywords) {
			end = start + 1 + m[0]
			break
		}
	}
	for _, m := range reTitledBracket.FindAllStringSubmatchIndex(rest, -1) {
		title := rest[m[2]:m[3]]
		if containsAny(title, titleKeywords) {
			if pos := start + 1 + m[0]; end < 0 || pos < end {
				end = pos
			}
			break
		}
	}

	if end < 0 {
		return ""
	}
	return strings.TrimSpace(text[start:end])
}

// sliceToNextMajorHeading cuts from start to the next first-level heading
// whose title contains one of majorHeadingKeywords, or returns "" when no
// such heading follows.
func sliceToNextMajorHeading(text string, start int) string {
	if start < 0 || start >= len(text) {
		return ""
	}
	rest := text[start+1:]
	for _, m := range reMajorHeading.FindAllStringSubmatchIndex(rest, -1) {
		title := rest[m[4]:m[5]]
		if containsAny(title, majorHeadingKeywords) {
			return strings.TrimSpace(text[start : start+1+m[0]])
		}
	}
	return ""
}

// nextOrdinalCandidates returns the possible spellings of the ordinal that
// follows the given one: "二" yields ["三" "3"], "11" yields ["十二" "12"].
func nextOrdinalCandidates(current string) []string {
	cn := current
	if _, err := fmt.Sscanf(current, "%d", new(int)); err == nil {
		cn = arabicToCN[current]
	}
	for i, c := range cnOrdinals {
		if c == cn && i+1 < len(cnOrdinals) {
			next := cnOrdinals[i+1]
			return []string{next, cnToArabic[next]}
		}
	}
	return nil
}

// sliceToNextOrdinal cuts from start to the heading of the next first-level
// ordinal (二、 -> 三、), so bullet lists inside the section cannot end it
// early. A major titled heading wins when one appears first.
func sliceToNextOrdinal(text string, start int, currentOrdinal string) string {
	if start < 0 || start >= len(text) {
		return ""
	}

	if sliced := sliceToNextMajorHeading(text, start); sliced != "" {
		return sliced
	}

	rest := text[start+1:]
	end := len(text)
	for _, cand := range nextOrdinalCandidates(currentOrdinal) {
		re, err := regexp.Compile(`\n\s*` + regexp.QuoteMeta(cand) + `、`)
		if err != nil {
			continue
		}
		if loc := re.FindStringIndex(rest); loc != nil && start+1+loc[0] < end {
			end = start + 1 + loc[0]
		}
	}
	return strings.TrimSpace(text[start:end])
}

// extractSectionByOrdinal extracts the section opened by a first-level
// ordinal heading (一、 / 1、; bracket form only as last resort) and bounded
// by the next same-level ordinal.
func extractSectionByOrdinal(text, ordinalCN string, keywordFallback []string) string {
	start := -1

	if loc := regexp.MustCompile(`(?:^|\n)\s*` + regexp.QuoteMeta(ordinalCN) + `、`).FindStringIndex(text); loc != nil {
		start = loc[0]
	} else if arabic := cnToArabic[ordinalCN]; arabic != "" {
		if loc := regexp.MustCompile(`(?:^|\n)\s*` + arabic + `、`).FindStringIndex(text); loc != nil {
			start = loc[0]
		}
	}

	if start < 0 {
		if loc := regexp.MustCompile(`(?:^|\n)\s*[（(]` + regexp.QuoteMeta(ordinalCN) + `[）)]`).FindStringIndex(text); loc != nil {
			start = loc[0]
		} else if arabic := cnToArabic[ordinalCN]; arabic != "" {
			if loc := regexp.MustCompile(`(?:^|\n)\s*[（(]` + arabic + `[）)]`).FindStringIndex(text); loc != nil {
				start = loc[0]
			}
		}
	}

	if start < 0 {
		for _, kw := range keywordFallback {
			if loc := regexp.MustCompile(`(?:^|\n)\s*` + regexp.QuoteMeta(kw)).FindStringIndex(text); loc != nil {
				start = loc[0]
				break
			}
		}
	}

	if start < 0 {
		return ""
	}
	return sliceToNextOrdinal(text, start, ordinalCN)
}

// extractSectionByKeywords locates a section by a first-level heading whose
// title contains one of the keywords and slices it out. The end boundary is
// the next first-level ordinal (or a titled heading when endTitleKeywords is
// given), never a bullet inside the body.
func extractSectionByKeywords(text string, keywords, fallbackOrdinals, endTitleKeywords []string) string {
	for _, kw := range keywords {
		re := regexp.MustCompile(`(?:^|\n)\s*([一二三四五六七八九十]{1,3}|\d{1,2})[、\.．:：]\s*[^\n]*` + regexp.QuoteMeta(kw) + `[^\n]*`)
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		start := m[0]
		if len(endTitleKeywords) > 0 {
			if sliced := sliceToNextTitledHeading(text, start, endTitleKeywords); sliced != "" {
				return sliced
			}
			return strings.TrimSpace(text[start:])
		}
		ordinal := text[m[2]:m[3]]
		return sliceToNextOrdinal(text, start, ordinal)
	}

	// Bracket sub-heading form: （三）所处行业情况 / (一)主要业务
	for _, kw := range keywords {
		re := regexp.MustCompile(`(?:^|\n)\s*[（(]([一二三四五六七八九十0-9]{1,3})[）)]\s*[^\n]*` + regexp.QuoteMeta(kw) + `[^\n]*`)
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		start := m[0]
		if sliced := sliceToNextBracketHeading(text, start); sliced != "" {
			return sliced
		}
		return strings.TrimSpace(text[start:])
	}

	for _, ordinal := range fallbackOrdinals {
		if sec := extractSectionByOrdinal(text, ordinal, nil); sec != "" {
			return sec
		}
	}
	return ""
}
