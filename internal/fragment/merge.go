// Package fragment implements the second pipeline stage: repairing paragraphs
// that the PDF conversion split across page or column boundaries.
package fragment

import (
	"strings"
	"unicode"

	"github.com/structpipe/structpipe/internal/document"
)

// sentenceTerminals are the characters that end a complete paragraph. A
// paragraph whose text ends with anything else is a candidate for absorbing
// the paragraph that follows it.
const sentenceTerminals = "。！？.?!"

// Result reports what a merge pass did.
type Result struct {
	// Merged is the number of fragments absorbed into a predecessor.
	Merged int
	// SeqMap maps every pre-merge 1-based sequence number to the sequence
	// number of the element now holding that content.
	SeqMap map[int]int
}

// incomplete reports whether a paragraph's text ends mid-sentence. Trailing
// whitespace is ignored for the check.
func incomplete(text string) bool {
	runes := []rune(strings.TrimRightFunc(text, unicode.IsSpace))
	if len(runes) == 0 {
		return false
	}
	last := runes[len(runes)-1]
	if last == '-' {
		return true
	}
	return !strings.ContainsRune(sentenceTerminals, last)
}

// join appends a continuation fragment to an incomplete paragraph. A trailing
// hyphen marks a word split: the hyphen is dropped and the halves concatenate
// directly. Otherwise the fragments are sentence parts and join with a single
// space.
func join(head, tail string) string {
	head = strings.TrimRightFunc(head, unicode.IsSpace)
	tail = strings.TrimLeftFunc(tail, unicode.IsSpace)
	if strings.HasSuffix(head, "-") {
		return strings.TrimSuffix(head, "-") + tail
	}
	return head + " " + tail
}

// Merge repairs split paragraphs in place. Only directly adjacent paragraph
// pairs merge; any other element type breaks the chain. Merging is transitive,
// the surviving element keeps the first fragment's provenance, and element IDs
// are renumbered densely afterwards. The returned sequence map lets callers
// remap any positions recorded against the pre-merge numbering.
func Merge(doc *document.Document) *Result {
	res := &Result{SeqMap: make(map[int]int, len(doc.Elements))}

	out := doc.Elements[:0:0]
	for i, el := range doc.Elements {
		oldSeq := i + 1
		if el.Type == document.TypeParagraph && strings.TrimSpace(el.Content.Text) != "" && len(out) > 0 {
			prev := out[len(out)-1]
			if prev.Type == document.TypeParagraph && incomplete(prev.Content.Text) {
				prev.Content.Text = join(prev.Content.Text, el.Content.Text)
				if prev.Metadata != nil {
					prev.Metadata.CharCount = len([]rune(prev.Content.Text))
				}
				res.SeqMap[oldSeq] = len(out)
				res.Merged++
				continue
			}
		}
		out = append(out, el)
		res.SeqMap[oldSeq] = len(out)
	}

	doc.Elements = out
	doc.Renumber()
	doc.Metadata.ParseStage = document.StageMerged
	doc.CheckDense()
	return res
}

// RemapRegions rewrites a region division recorded against pre-merge sequence
// numbers onto the post-merge numbering. Boundaries that pointed at an
// absorbed fragment move to the element that absorbed it.
func RemapRegions(div *document.RegionDivision, seqMap map[int]int) {
	if div == nil {
		return
	}
	remap := func(r *document.Region) {
		if s, ok := seqMap[r.StartSeq]; ok {
			r.StartSeq = s
		}
		if e, ok := seqMap[r.EndSeq]; ok {
			r.EndSeq = e
		}
	}
	remap(&div.Head)
	remap(&div.Body)
	remap(&div.Tail)
}
