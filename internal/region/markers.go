// Package region implements the third pipeline stage: dividing a document's
// elements into head (front matter), body (substantive content) and tail
// (references and appendices) by structural-marker analysis.
package region

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// Config bounds the marker heuristics. Zero values select the defaults.
type Config struct {
	// TOCRowMaxLen is the rune length under which a line with leader dots
	// and a trailing page number is treated as a table-of-contents row
	// rather than a real section heading.
	TOCRowMaxLen int
	// LabelMaxLen caps the leading section label taken from the start of a
	// non-title element's text.
	LabelMaxLen int
}

// DefaultConfig returns the thresholds tuned for academic PDFs.
func DefaultConfig() Config {
	return Config{TOCRowMaxLen: 50, LabelMaxLen: 100}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TOCRowMaxLen <= 0 {
		c.TOCRowMaxLen = d.TOCRowMaxLen
	}
	if c.LabelMaxLen <= 0 {
		c.LabelMaxLen = d.LabelMaxLen
	}
	return c
}

// Marker roles, in classification priority order.
const (
	roleReferences  = "references"
	roleTOC         = "toc"
	roleTail        = "tail"
	roleFrontMatter = "front_matter"
	roleBodyStart   = "body_start"
)

// marker is a classified element position, 1-based.
type marker struct {
	seq  int
	role string
}

var (
	refsZH = []string{"参考文献", "參考文獻", "引用文献", "参考资料"}
	refsEN = []string{"references", "bibliography", "works cited", "references and notes"}

	tocZH = []string{"目录", "目次"}
	tocEN = []string{"contents", "table of contents"}

	tailZH = []string{"附录", "致谢", "鸣谢"}
	tailEN = []string{"appendix", "appendices", "acknowledgement", "acknowledgments", "acknowledgements"}
)

var (
	reTrailingDigit = regexp.MustCompile(`\d\s*$`)
	reTrailingColon = regexp.MustCompile(`[：:]\s*$`)

	// Body-start heading shapes across common thesis and paper formats.
	reIntroNumberedEN  = regexp.MustCompile(`(?i)^\s*1\s*[.．]?\s*introduction\s*$`)
	reIntroStandalone  = regexp.MustCompile(`(?i)^\s*introduction\s*$`)
	reChapterOne       = regexp.MustCompile(`(?i)^\s*(chapter|part)\s+[i1]\s*$`)
	reIntroNumberedZH  = regexp.MustCompile(`^1\s*[.．]?\s*绪论\s*[：:]?\s*$`)
	reChapterHeadingZH = regexp.MustCompile(`^[一二三1Ⅰ]\s*[、．.]?\s*`)
	reNumberedSection  = regexp.MustCompile(`^\s*1\s*[.．]\s*\S+`)
)

// normalizeZH strips ASCII and ideographic spaces so "参考 文献" and
// "参考文献" compare equal.
func normalizeZH(t string) string {
	t = strings.ReplaceAll(t, " ", "")
	t = strings.ReplaceAll(t, "　", "")
	return strings.TrimSpace(t)
}

// normalizeEN folds full-width forms and lowercases, so "ＲＥＦＥＲＥＮＣＥＳ"
// matches "references".
func normalizeEN(t string) string {
	return strings.ToLower(strings.TrimSpace(width.Fold.String(t)))
}

func runeLen(s string) int { return len([]rune(s)) }

// isTOCRow reports whether a line looks like a table-of-contents row: leader
// dots plus a trailing page number, within the length cap. Such rows must
// never classify as section markers.
func (c Config) isTOCRow(t string) bool {
	if !strings.Contains(t, "…") && !strings.Contains(t, "...") {
		return false
	}
	return runeLen(t) < c.TOCRowMaxLen && reTrailingDigit.MatchString(t)
}

// isReferencesMarker reports whether text names the bibliography section.
func (c Config) isReferencesMarker(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || c.isTOCRow(t) {
		return false
	}
	zh := normalizeZH(text)
	for _, p := range refsZH {
		if strings.Contains(zh, p) {
			return true
		}
	}
	en := normalizeEN(text)
	for _, p := range refsEN {
		if en == p || strings.HasPrefix(en, p) || (runeLen(en) <= runeLen(p)+2 && strings.Contains(en, p)) {
			return true
		}
	}
	return false
}

// isTOCTitle is the loose table-of-contents test used against title elements.
func isTOCTitle(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	zh := normalizeZH(text)
	for _, p := range tocZH {
		if strings.Contains(zh, p) {
			return true
		}
	}
	en := normalizeEN(text)
	for _, p := range tocEN {
		if en == p || strings.Contains(en, p) {
			return true
		}
	}
	return false
}

// isTOCHeader is the strict variant used against leading labels of arbitrary
// elements, where a loose substring test would misfire on ordinary prose.
func isTOCHeader(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	zh := normalizeZH(text)
	for _, p := range tocZH {
		if zh == p || (strings.HasPrefix(zh, p) && runeLen(zh) <= 10) {
			return true
		}
	}
	en := normalizeEN(text)
	for _, p := range tocEN {
		if en == p || strings.HasPrefix(en, p) || (runeLen(en) <= 20 && strings.Contains(en, p)) {
			return true
		}
	}
	return false
}

// isTailStart reports whether text opens the post-reference tail: appendix or
// acknowledgements material.
func (c Config) isTailStart(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || c.isTOCRow(t) {
		return false
	}
	zh := normalizeZH(text)
	for _, p := range tailZH {
		if strings.Contains(zh, p) {
			return true
		}
	}
	en := normalizeEN(text)
	for _, p := range tailEN {
		if en == p || (runeLen(en) <= runeLen(p)+3 && strings.Contains(en, p)) {
			return true
		}
	}
	return false
}

// isFrontMatter reports whether text names front matter (abstract, keywords)
// that can never open the body.
func isFrontMatter(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	zh := normalizeZH(text)
	switch zh {
	case "摘要", "关键词", "摘要与关键词":
		return true
	}
	if strings.HasPrefix(zh, "摘要") {
		return true
	}
	en := normalizeEN(text)
	switch en {
	case "abstract", "keywords", "key words":
		return true
	}
	return strings.HasPrefix(en, "abstract")
}

// bodyStartExcluded applies the exclusions shared by the body-start tests:
// TOC rows, lines ending in a colon or page number, and front matter.
func (c Config) bodyStartExcluded(t string) bool {
	if strings.Contains(t, "…") || strings.Contains(t, "...") {
		return true
	}
	if reTrailingColon.MatchString(t) || reTrailingDigit.MatchString(t) {
		return true
	}
	if strings.Contains(t, "绪论") && (strings.Contains(t, "：") || strings.Contains(t, ":")) && runeLen(t) < 20 {
		return true
	}
	if isFrontMatter(t) || isTOCTitle(t) || c.isReferencesMarker(t) {
		return true
	}
	return false
}

// isBodyStart reports whether text can open the body. Broader than
// isMajorBodyStart; used for fallback start selection.
func (c Config) isBodyStart(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || c.bodyStartExcluded(t) {
		return false
	}
	if reIntroNumberedEN.MatchString(t) || reIntroStandalone.MatchString(t) || reChapterOne.MatchString(t) {
		return true
	}
	if reIntroNumberedZH.MatchString(t) {
		return true
	}
	zh := normalizeZH(t)
	if zh == "1绪论" || (strings.HasPrefix(zh, "1") && strings.Contains(zh, "绪论")) {
		return true
	}
	if strings.HasPrefix(zh, "1") && (strings.Contains(zh, "引言") || strings.Contains(zh, "概述")) {
		return true
	}
	if reChapterHeadingZH.MatchString(t) && runeLen(t) <= 30 {
		return true
	}
	if reNumberedSection.MatchString(t) && runeLen(t) <= 80 {
		return true
	}
	return false
}

// isMajorBodyStart restricts to first-chapter headings ("1 Introduction",
// "Chapter 1", "1 绪论"). Only these open brackets in the pairing scan, so a
// stray numbered list item cannot anchor the body.
func (c Config) isMajorBodyStart(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || c.bodyStartExcluded(t) {
		return false
	}
	if reIntroNumberedEN.MatchString(t) || reIntroStandalone.MatchString(t) || reChapterOne.MatchString(t) {
		return true
	}
	if reIntroNumberedZH.MatchString(t) {
		return true
	}
	zh := normalizeZH(t)
	if zh == "1绪论" || (strings.HasPrefix(zh, "1") && strings.Contains(zh, "绪论")) {
		return true
	}
	if strings.HasPrefix(zh, "1") && (strings.Contains(zh, "引言") || strings.Contains(zh, "概述")) && runeLen(zh) < 15 {
		return true
	}
	return false
}

// leadingLabel extracts the section label from the start of an element's
// text: the first line capped at LabelMaxLen runes, with any trailing colon
// stripped. Lets "ABSTRACT: ..." and "References" paragraphs act as markers.
func (c Config) leadingLabel(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	firstLine := strings.TrimSpace(strings.SplitN(t, "\n", 2)[0])
	runes := []rune(firstLine)
	if len(runes) > c.LabelMaxLen {
		firstLine = strings.TrimSpace(string(runes[:c.LabelMaxLen]))
	}
	return strings.TrimSpace(strings.TrimRight(firstLine, "：:"))
}
