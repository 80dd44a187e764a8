package fuse

import (
	"sort"
	"strings"

	"golang.org/x/text/width"

	"github.com/structpipe/structpipe/internal/document"
)

// abstractLanguage reports whether a section title names an abstract section,
// and in which language. Full-width characters are folded before matching so
// "ＡＢＳＴＲＡＣＴ" and "Abstract" classify alike.
func abstractLanguage(sectionTitle string) (lang string, ok bool) {
	title := strings.TrimSpace(width.Fold.String(sectionTitle))
	if title == "" {
		return "", false
	}
	if strings.Contains(title, "摘要") || strings.Contains(title, "提要") {
		return "zh", true
	}
	if strings.HasPrefix(strings.ToLower(title), "abstract") {
		return "en", true
	}
	return "", false
}

// recoverAbstract collects the paragraphs filed under abstract section titles
// and groups them by language. Returns nil when the document carries no
// recognizable abstract.
func recoverAbstract(elements []*document.Element) *document.Abstract {
	byLang := map[string][]string{}
	for _, el := range elements {
		if el.Type != document.TypeParagraph {
			continue
		}
		lang, ok := abstractLanguage(el.Source.SectionTitle)
		if !ok || el.Content.Text == "" {
			continue
		}
		byLang[lang] = append(byLang[lang], el.Content.Text)
	}
	if len(byLang) == 0 {
		return nil
	}
	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	a := &document.Abstract{}
	for _, lang := range langs {
		a.Entries = append(a.Entries, document.AbstractEntry{
			Language: lang,
			Text:     strings.Join(byLang[lang], "\n"),
		})
	}
	return a
}
