package fuse

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/structpipe/structpipe/internal/document"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestClassifyType(t *testing.T) {
	cases := map[string]string{
		"text":        document.TypeParagraph,
		"figure":      document.TypeImage,
		"header":      document.TypePageHeader,
		"page_number": document.TypePageNumber,
		"interline_equation": "interline_equation", // unmapped tags pass through
	}
	for tag, want := range cases {
		if got := ClassifyType(tag); got != want {
			t.Errorf("ClassifyType(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestNormalizeText_Shapes(t *testing.T) {
	if got := normalizeText("  hi  "); got != "hi" {
		t.Fatalf("string: got %q", got)
	}
	if got := normalizeText([]any{"one", " two "}); got != "one two" {
		t.Fatalf("list: got %q", got)
	}
	if got := normalizeText(map[string]any{"content": "nested"}); got != "nested" {
		t.Fatalf("map: got %q", got)
	}
	if got := normalizeText(42); got != "" {
		t.Fatalf("number: got %q", got)
	}
}

func TestBuildContent_ParagraphWithInlineEquation(t *testing.T) {
	raw := RawElement{Type: "text", Content: map[string]any{
		"paragraph_content": []any{
			map[string]any{"type": "text", "content": "energy is "},
			map[string]any{"type": "equation_inline", "content": "E=mc^2"},
			map[string]any{"type": "text", "content": " as shown."},
		},
	}}
	c := buildContent(document.TypeParagraph, raw)
	want := "energy is $E=mc^2$ as shown."
	if c.Text != want {
		t.Fatalf("got %q, want %q", c.Text, want)
	}
}

func TestBuildContent_EquationWrapped(t *testing.T) {
	raw := RawElement{Type: "equation", Content: map[string]any{"math_content": "a+b"}}
	c := buildContent(document.TypeEquation, raw)
	if c.Text != "$$ a+b $$" {
		t.Fatalf("text %q", c.Text)
	}
	if c.Format != "latex" {
		t.Fatalf("format %q", c.Format)
	}
}

func TestBuildContent_TitleFallbackText(t *testing.T) {
	raw := RawElement{Type: "title", Text: " 1 Introduction "}
	c := buildContent(document.TypeTitle, raw)
	if c.Text != "1 Introduction" || c.Level != 1 {
		t.Fatalf("got %+v", c)
	}
}

func TestTableDims(t *testing.T) {
	html := "<table><tr><th>a</th><th>b</th><th>c</th></tr>" +
		"<tr><td>1</td><td>2</td><td>3</td></tr>" +
		"<tr><td>4</td><td>5</td><td>6</td></tr></table>"
	rows, cols := tableDims(html)
	if rows != 2 || cols != 3 {
		t.Fatalf("got rows=%d cols=%d, want 2x3", rows, cols)
	}
	if r, c := tableDims(""); r != 0 || c != 0 {
		t.Fatalf("empty html: got %dx%d", r, c)
	}
}

func TestDetectLanguage(t *testing.T) {
	if got := DetectLanguage("本文提出了一种新的方法"); got != "zh" {
		t.Fatalf("chinese sample: got %q", got)
	}
	if got := DetectLanguage("This paper proposes a method"); got != "en" {
		t.Fatalf("english sample: got %q", got)
	}
	if got := DetectLanguage(""); got != "en" {
		t.Fatalf("empty sample: got %q", got)
	}
}

func TestAbstractLanguage(t *testing.T) {
	if lang, ok := abstractLanguage("摘要"); !ok || lang != "zh" {
		t.Fatalf("got %q %v", lang, ok)
	}
	if lang, ok := abstractLanguage("ＡＢＳＴＲＡＣＴ"); !ok || lang != "en" {
		t.Fatalf("full-width: got %q %v", lang, ok)
	}
	if _, ok := abstractLanguage("Introduction"); ok {
		t.Fatalf("introduction must not classify as abstract")
	}
}

const testPrimary = `[
  [
    {"type":"header","text":"Running head"},
    {"type":"title","content":{"title_content":[{"type":"text","content":"Abstract"}],"level":1},"bbox":[0.1,0.05,0.9,0.08]},
    {"type":"text","content":{"paragraph_content":[{"type":"text","content":"We study widgets with "},{"type":"equation_inline","content":"x^2"},{"type":"text","content":" flair."}]},"bbox":[0.1,0.1,0.9,0.2]},
    {"type":"image","content":{"image_caption":["Figure 1. A widget."]},"bbox":[0.1,0.3,0.5,0.5]},
    {"type":"text","text":"   "}
  ],
  [
    {"type":"title","content":{"title_content":[{"content":"1 Introduction"}],"level":1},"bbox":[0.1,0.05,0.9,0.08]},
    {"type":"table","content":{"html":"<table><tr><th>h1</th><th>h2</th></tr><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>","table_caption":[{"content":"Table 1. Results."}]},"bbox":[0.2,0.2,0.6,0.4]},
    {"type":"text","text":"Body text continues."}
  ]
]`

const testSecondary = `[
  {"type":"image","page_idx":0,"bbox":[100,300,500,500],"img_path":"images/fig1.png"},
  {"type":"table","page_idx":1,"bbox":[205,195,595,405],"img_path":"images/table1.png"}
]`

func writeTestSources(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "content_list_v2.json"), testPrimary)
	writeFile(t, filepath.Join(dir, "abc123_content_list.json"), testSecondary)
	writeFile(t, filepath.Join(dir, "abc123_model.json"), "[]")
	writeFile(t, filepath.Join(dir, "layout.json"), `{"pdf_info":[{"page_size":[1000,1000]},{"page_size":[1000,1000]}]}`)
	return dir
}

func TestExtract_FusesAllSources(t *testing.T) {
	dir := writeTestSources(t)
	doc, err := (&Extractor{}).Extract(dir, "thesis")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if doc.Metadata.ParseStage != document.StageParsed {
		t.Fatalf("stage %q", doc.Metadata.ParseStage)
	}
	if doc.Metadata.TotalPages != 2 {
		t.Fatalf("total_pages %d", doc.Metadata.TotalPages)
	}
	if doc.Metadata.Language != "en" {
		t.Fatalf("language %q", doc.Metadata.Language)
	}

	// header and whitespace-only paragraph are gone
	if len(doc.Elements) != 6 {
		for _, el := range doc.Elements {
			t.Logf("%s %s %q", el.ID, el.Type, el.Content.Text)
		}
		t.Fatalf("got %d elements, want 6", len(doc.Elements))
	}
	for i, el := range doc.Elements {
		if el.ID != document.ElementID("thesis", i+1) {
			t.Fatalf("element %d id %q", i, el.ID)
		}
	}

	para := doc.Elements[1]
	if para.Type != document.TypeParagraph {
		t.Fatalf("element 2 type %q", para.Type)
	}
	if para.Content.Text != "We study widgets with $x^2$ flair." {
		t.Fatalf("paragraph text %q", para.Content.Text)
	}
	if para.Source.SectionTitle != "Abstract" {
		t.Fatalf("section title %q", para.Source.SectionTitle)
	}
	if para.Source.Page != 0 {
		t.Fatalf("page %d", para.Source.Page)
	}
	if para.Metadata == nil || para.Metadata.CharCount == 0 {
		t.Fatalf("paragraph metadata %+v", para.Metadata)
	}

	img := doc.Elements[2]
	if img.Type != document.TypeImage {
		t.Fatalf("element 3 type %q", img.Type)
	}
	if want := filepath.Join(dir, "images/fig1.png"); img.Source.ImagePath != want {
		t.Fatalf("image path %q, want %q", img.Source.ImagePath, want)
	}
	if len(img.Content.Captions) != 1 || img.Content.Captions[0] != "Figure 1. A widget." {
		t.Fatalf("captions %v", img.Content.Captions)
	}

	tbl := doc.Elements[4]
	if tbl.Type != document.TypeTable {
		t.Fatalf("element 5 type %q", tbl.Type)
	}
	if want := filepath.Join(dir, "images/table1.png"); tbl.Source.ImagePath != want {
		t.Fatalf("table path %q, want %q", tbl.Source.ImagePath, want)
	}
	if tbl.Metadata == nil || tbl.Metadata.RowCount != 2 || tbl.Metadata.ColCount != 2 {
		t.Fatalf("table metadata %+v", tbl.Metadata)
	}
	if tbl.Source.SectionTitle != "1 Introduction" {
		t.Fatalf("table section %q", tbl.Source.SectionTitle)
	}

	if doc.Metadata.Abstract == nil {
		t.Fatalf("abstract not recovered")
	}
	if got := doc.Metadata.Abstract.Text("en"); got != "We study widgets with $x^2$ flair." {
		t.Fatalf("abstract %q", got)
	}
}

func TestExtract_TitlesCarryNoSectionTitle(t *testing.T) {
	dir := writeTestSources(t)
	doc, err := (&Extractor{}).Extract(dir, "thesis")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, el := range doc.Elements {
		if el.Type == document.TypeTitle && el.Source.SectionTitle != "" {
			t.Errorf("title %s carries section_title %q, want empty", el.ID, el.Source.SectionTitle)
		}
		if el.Type != document.TypeTitle && el.Source.SectionTitle == "" {
			t.Errorf("element %s (%s) lost its enclosing section title", el.ID, el.Type)
		}
	}
}

func TestExtract_AssetOnlyTableKept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "content_list_v2.json"), `[
  [
    {"type":"text","text":"Intro prose."},
    {"type":"table","content":{},"bbox":[0.2,0.2,0.6,0.4]}
  ]
]`)
	writeFile(t, filepath.Join(dir, "abc123_content_list.json"),
		`[{"type":"table","page_idx":0,"bbox":[205,195,595,405],"img_path":"images/table1.png"}]`)
	writeFile(t, filepath.Join(dir, "layout.json"), `{"pdf_info":[{"page_size":[1000,1000]}]}`)

	doc, err := (&Extractor{}).Extract(dir, "thesis")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(doc.Elements) != 2 {
		t.Fatalf("got %d elements, want the asset-only table kept", len(doc.Elements))
	}
	tbl := doc.Elements[1]
	if tbl.Type != document.TypeTable {
		t.Fatalf("element 2 type %q", tbl.Type)
	}
	if want := filepath.Join(dir, "images/table1.png"); tbl.Source.ImagePath != want {
		t.Fatalf("table path %q, want %q", tbl.Source.ImagePath, want)
	}

	// without a matching asset the same table stays dropped
	bare := t.TempDir()
	writeFile(t, filepath.Join(bare, "content_list_v2.json"), `[
  [
    {"type":"text","text":"Intro prose."},
    {"type":"table","content":{},"bbox":[0.2,0.2,0.6,0.4]}
  ]
]`)
	doc, err = (&Extractor{}).Extract(bare, "thesis")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(doc.Elements) != 1 {
		t.Fatalf("got %d elements, want empty table dropped", len(doc.Elements))
	}
}

func TestExtract_MissingSecondaryDegrades(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "content_list_v2.json"), testPrimary)
	doc, err := (&Extractor{}).Extract(dir, "thesis")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, el := range doc.Elements {
		if el.Source.ImagePath != "" {
			t.Fatalf("unexpected asset path %q without secondary source", el.Source.ImagePath)
		}
	}
}

func TestExtract_MissingPrimaryIsFatal(t *testing.T) {
	_, err := (&Extractor{}).Extract(t.TempDir(), "thesis")
	if !errors.Is(err, ErrPrimarySourceMissing) {
		t.Fatalf("got %v, want ErrPrimarySourceMissing", err)
	}
}

func TestPageSize_Default(t *testing.T) {
	var l *RawLayout
	w, h := l.PageSize()
	if w != 595 || h != 841 {
		t.Fatalf("got %dx%d", w, h)
	}
}
