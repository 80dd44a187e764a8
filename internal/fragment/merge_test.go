package fragment

import (
	"testing"

	"github.com/structpipe/structpipe/internal/document"
)

func makeDoc(t *testing.T, parts ...*document.Element) *document.Document {
	t.Helper()
	doc := &document.Document{
		Metadata: document.Metadata{DocID: "d", ParseStage: document.StageParsed},
		Elements: parts,
	}
	doc.Renumber()
	return doc
}

func para(text string) *document.Element {
	return &document.Element{
		Type:     document.TypeParagraph,
		Content:  document.Content{Text: text},
		Metadata: &document.ElementMetadata{CharCount: len([]rune(text))},
	}
}

func title(text string) *document.Element {
	return &document.Element{Type: document.TypeTitle, Content: document.Content{Text: text, Level: 1}}
}

func TestMerge_HyphenSplitConcatenatesDirectly(t *testing.T) {
	doc := makeDoc(t, para("exam-"), para("ple text."))
	res := Merge(doc)
	if res.Merged != 1 {
		t.Fatalf("merged %d, want 1", res.Merged)
	}
	if len(doc.Elements) != 1 {
		t.Fatalf("got %d elements", len(doc.Elements))
	}
	if got := doc.Elements[0].Content.Text; got != "example text." {
		t.Fatalf("got %q", got)
	}
	if doc.Elements[0].Metadata.CharCount != len([]rune("example text.")) {
		t.Fatalf("char count %d", doc.Elements[0].Metadata.CharCount)
	}
}

func TestMerge_SentenceContinuationJoinsWithSpace(t *testing.T) {
	doc := makeDoc(t, para("the method works"), para("on all inputs."))
	Merge(doc)
	if got := doc.Elements[0].Content.Text; got != "the method works on all inputs." {
		t.Fatalf("got %q", got)
	}
}

func TestMerge_Transitive(t *testing.T) {
	doc := makeDoc(t, para("a first"), para("middle part"), para("and last."), para("Separate."))
	res := Merge(doc)
	if res.Merged != 2 {
		t.Fatalf("merged %d, want 2", res.Merged)
	}
	if len(doc.Elements) != 2 {
		t.Fatalf("got %d elements", len(doc.Elements))
	}
	if got := doc.Elements[0].Content.Text; got != "a first middle part and last." {
		t.Fatalf("got %q", got)
	}
}

func TestMerge_CompleteParagraphsUntouched(t *testing.T) {
	doc := makeDoc(t, para("First sentence."), para("Second sentence!"), para("中文句子。"))
	res := Merge(doc)
	if res.Merged != 0 || len(doc.Elements) != 3 {
		t.Fatalf("merged %d, %d elements", res.Merged, len(doc.Elements))
	}
}

func TestMerge_NonParagraphBreaksChain(t *testing.T) {
	doc := makeDoc(t, para("dangling fragment"), title("2 Methods"), para("fresh start."))
	res := Merge(doc)
	if res.Merged != 0 || len(doc.Elements) != 3 {
		t.Fatalf("title must break the merge chain: merged %d, %d elements", res.Merged, len(doc.Elements))
	}
}

func TestMerge_Idempotent(t *testing.T) {
	doc := makeDoc(t, para("split in"), para("two halves."), para("Whole sentence."))
	Merge(doc)
	first := len(doc.Elements)
	res := Merge(doc)
	if res.Merged != 0 || len(doc.Elements) != first {
		t.Fatalf("second pass changed the document: merged %d", res.Merged)
	}
}

func TestMerge_SeqMapAndRenumber(t *testing.T) {
	doc := makeDoc(t, title("1 Intro"), para("broken"), para("piece."), para("Next."))
	res := Merge(doc)

	want := map[int]int{1: 1, 2: 2, 3: 2, 4: 3}
	for old, mapped := range want {
		if res.SeqMap[old] != mapped {
			t.Fatalf("seq %d mapped to %d, want %d", old, res.SeqMap[old], mapped)
		}
	}
	for i, el := range doc.Elements {
		if el.ID != document.ElementID("d", i+1) {
			t.Fatalf("element %d id %q", i, el.ID)
		}
	}
	if doc.Metadata.ParseStage != document.StageMerged {
		t.Fatalf("stage %q", doc.Metadata.ParseStage)
	}
}

func TestRemapRegions(t *testing.T) {
	div := &document.RegionDivision{
		Head: document.Region{StartSeq: 1, EndSeq: 2},
		Body: document.Region{StartSeq: 3, EndSeq: 8},
		Tail: document.Region{StartSeq: 9, EndSeq: 10},
	}
	seqMap := map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 5: 4, 6: 5, 7: 6, 8: 7, 9: 8, 10: 9}
	RemapRegions(div, seqMap)
	if div.Body.StartSeq != 2 || div.Body.EndSeq != 7 {
		t.Fatalf("body %+v", div.Body)
	}
	if div.Tail.StartSeq != 8 || div.Tail.EndSeq != 9 {
		t.Fatalf("tail %+v", div.Tail)
	}
}
