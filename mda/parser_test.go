package mda

import (
	"strings"
	"testing"
)

// fakeSource feeds synthetic report pages to the parser.
type fakeSource struct {
	pages []string
}

func (f *fakeSource) NumPages() int { return len(f.pages) }

func (f *fakeSource) PageText(page int) (string, error) {
	if page < 1 || page > len(f.pages) {
		return "", nil
	}
	return f.pages[page-1], nil
}

func syntheticReport() *fakeSource {
	business := strings.Repeat("报告期内公司实现稳健经营，主营产品销售收入持续增长，盈利能力稳步提升。", 20)
	core := strings.Repeat("公司拥有完整的研发体系和稳定的客户资源。", 10)
	future := strings.Repeat("公司将继续围绕主业加大研发投入，积极拓展国内外市场，提升核心竞争力。", 10)

	return &fakeSource{pages: []string{
		"目录\n第一节 重要提示\n第二节 公司简介\n第三节 管理层讨论与分析......6\n第五节 环境与社会责任......80",
		"第一节 重要提示\n本公司董事会及全体董事保证本报告内容真实准确完整。",
		"第二节 公司简介与主要财务指标\n公司主要从事各类产品的研发生产与销售业务。",
		"主要会计数据和财务指标说明。",
		"其他财务指标与说明。",
		"第三节 管理层讨论与分析\n一、经营情况讨论与分析\n" + business,
		"三、报告期内核心竞争力分析\n" + core,
		"十一、公司未来发展的展望\n" + future + "\n十二、其他重要说明\n其他无重大事项。",
		"第四节 公司治理\n董事会运作情况说明。",
	}}
}

func TestExtractMDA(t *testing.T) {
	sections, err := ExtractMDA(syntheticReport())
	if err != nil {
		t.Fatalf("ExtractMDA failed: %v", err)
	}

	if !strings.HasPrefix(sections.FullText, "第三节管理层讨论与分析") {
		t.Errorf("full text should start at the section heading, got %q", sections.FullText[:30])
	}
	if strings.Contains(sections.FullText, "公司治理") {
		t.Error("full text must stop before section four")
	}

	if sections.Business == nil {
		t.Fatal("expected a business section")
	}
	if !strings.Contains(*sections.Business, "经营情况讨论与分析") {
		t.Error("business section should contain the overview heading")
	}
	if strings.Contains(*sections.Business, "核心竞争力分析") {
		t.Error("business section must end before the core-competitiveness heading")
	}

	if sections.Future == nil {
		t.Fatal("expected a future section")
	}
	if !strings.Contains(*sections.Future, "公司未来发展的展望") {
		t.Error("future section should contain its heading")
	}
	if strings.Contains(*sections.Future, "其他重要说明") {
		t.Error("future section must end before the next ordinal heading")
	}

	if sections.Industry != nil {
		t.Error("industry section should stay nil")
	}
}

func TestExtractMDABodyScanFallback(t *testing.T) {
	// No usable TOC entry: the parser must find the section by scanning.
	business := strings.Repeat("公司各项业务稳步推进，市场份额持续扩大，经营质量不断改善。", 30)
	src := &fakeSource{pages: []string{
		"目录\n第一节 重要提示\n第三节 管理层讨论与分析",
		"第一节 重要提示\n说明内容。",
		"第三节 管理层讨论与分析\n一、经营情况讨论与分析\n" + business,
		"第四节 公司治理\n说明。",
	}}

	sections, err := ExtractMDA(src)
	if err != nil {
		t.Fatalf("ExtractMDA failed: %v", err)
	}
	if !strings.Contains(sections.FullText, "经营情况讨论与分析") {
		t.Error("body scan should have located the section")
	}
}

func TestExtractMDANotFound(t *testing.T) {
	src := &fakeSource{pages: []string{
		"目录\n第一节 重要提示",
		"第一节 重要提示\n内容。",
	}}
	if _, err := ExtractMDA(src); err != ErrSectionNotFound {
		t.Errorf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "page numbers stripped",
			in:   "正文内容\n12\n14/248\n更多内容",
			want: "正文内容\n更多内容",
		},
		{
			name: "company header stripped",
			in:   "某某科技股份有限公司 2024年年度报告\n正文内容",
			want: "正文内容",
		},
		{
			name: "short company name line stripped",
			in:   "某某科技股份有限公司\n正文内容",
			want: "正文内容",
		},
		{
			name: "code header stripped",
			in:   "公司代码：600000 公司简称：某某科技\n正文内容",
			want: "正文内容",
		},
		{
			name: "table rules stripped",
			in:   "---+---\n|||\n正文内容",
			want: "正文内容",
		},
		{
			name: "spaces removed and blank runs compressed",
			in:   "正文 内容\n\n\n更多 内容",
			want: "正文内容\n更多内容",
		},
		{
			name: "running title stripped",
			in:   "2024年年度报告全文\n正文内容",
			want: "正文内容",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSliceToNextOrdinal(t *testing.T) {
	text := "二、主要内容\n第一项说明\n三、下一节\n其他内容"
	got := sliceToNextOrdinal(text, 0, "二")
	if got != "二、主要内容\n第一项说明" {
		t.Errorf("sliceToNextOrdinal = %q", got)
	}
}

func TestSliceToNextOrdinalIgnoresBullets(t *testing.T) {
	// A restarted bullet list (一、) inside the body must not end the slice;
	// only the successor ordinal does.
	text := "十一、公司未来发展的展望\n一、行业格局\n二、发展战略\n十二、其他事项\n内容"
	got := sliceToNextOrdinal(text, 0, "十一")
	if !strings.Contains(got, "发展战略") {
		t.Errorf("slice should keep interior bullets, got %q", got)
	}
	if strings.Contains(got, "其他事项") {
		t.Errorf("slice should stop at 十二, got %q", got)
	}
}

func TestExtractSectionByKeywordsBracketForm(t *testing.T) {
	text := "（一）主要业务情况\n公司主要从事产品研发。\n（二）行业情况说明\n行业稳定。"
	got := extractSectionByKeywords(text, []string{"主要业务"}, nil, nil)
	if !strings.Contains(got, "产品研发") {
		t.Errorf("expected bracket section body, got %q", got)
	}
	if strings.Contains(got, "行业稳定") {
		t.Errorf("bracket section should end at the next bracket heading, got %q", got)
	}
}

func TestNextOrdinalCandidates(t *testing.T) {
	tests := []struct {
		current string
		want    []string
	}{
		{"二", []string{"三", "3"}},
		{"十一", []string{"十二", "12"}},
		{"11", []string{"十二", "12"}},
		{"二十", nil},
	}
	for _, tt := range tests {
		got := nextOrdinalCandidates(tt.current)
		if len(got) != len(tt.want) {
			t.Errorf("nextOrdinalCandidates(%q) = %v, want %v", tt.current, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("nextOrdinalCandidates(%q) = %v, want %v", tt.current, got, tt.want)
			}
		}
	}
}
