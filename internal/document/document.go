package document

import (
	"fmt"

	"github.com/structpipe/structpipe/internal/geometry"
)

// Element types produced by the fusion stage. Source-specific tags are
// normalized onto this set before anything downstream sees them.
const (
	TypeParagraph  = "paragraph"
	TypeTitle      = "title"
	TypeTable      = "table"
	TypeImage      = "image"
	TypeCode       = "code"
	TypeEquation   = "equation"
	TypeList       = "list"
	TypePageHeader = "page_header"
	TypePageFooter = "page_footer"
	TypePageNumber = "page_number"
	TypeReference  = "reference"
)

// Pipeline stage markers written to metadata.parse_stage. Ordered: a document
// whose stage is at or past a target stage is skipped on re-runs unless forced.
const (
	StageParsed    = "layout_json_parsed"
	StageMerged    = "fragment_merged"
	StageDivided   = "region_divided"
	StageMetadata  = "metadata_extracted"
	StageDescribed = "image_description"
)

// Stages lists the pipeline stages in execution order.
var Stages = []string{StageParsed, StageMerged, StageDivided, StageMetadata, StageDescribed}

// StageIndex returns the position of a stage marker in the pipeline order,
// or -1 for an unknown/empty marker.
func StageIndex(stage string) int {
	for i, s := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// AtOrPast reports whether a document currently at stage cur has already been
// processed by stage target.
func AtOrPast(cur, target string) bool {
	ci, ti := StageIndex(cur), StageIndex(target)
	return ci >= 0 && ti >= 0 && ci >= ti
}

// Content is the type-tagged payload of an element. Exactly the fields that
// apply to the element's type are populated; everything else stays zero and is
// omitted from JSON.
type Content struct {
	// paragraph / title / list / code / equation / page furniture
	Text string `json:"text,omitempty"`
	// title only
	Level int `json:"level,omitempty"`
	// table only
	HTML string `json:"html,omitempty"`
	// table / image
	Captions []string `json:"captions,omitempty"`
	// table / image / equation: model-generated description, filled by the
	// description stage
	Description string `json:"description,omitempty"`
	// code only
	Language string `json:"language,omitempty"`
	// equation only
	Format string `json:"format,omitempty"`
}

// Source records an element's provenance. Page is the zero-based page index,
// matching the page_idx convention of the raw sources.
type Source struct {
	File         string        `json:"file"`
	Page         int           `json:"page"`
	BBox         geometry.BBox `json:"bbox"`
	SectionTitle string        `json:"section_title,omitempty"`
	ImagePath    string        `json:"image_path,omitempty"`
}

// ElementMetadata holds type-specific derived metadata. All fields optional.
type ElementMetadata struct {
	CharCount  int     `json:"char_count,omitempty"`
	TableType  string  `json:"table_type,omitempty"`
	RowCount   int     `json:"row_count,omitempty"`
	ColCount   int     `json:"col_count,omitempty"`
	LineCount  int     `json:"line_count,omitempty"`
	Language   string  `json:"language,omitempty"`
	Format     string  `json:"format,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// IsZero reports whether no metadata field is set, so the whole object can be
// omitted from JSON.
func (m *ElementMetadata) IsZero() bool {
	return m == nil || *m == ElementMetadata{}
}

// Element is one structural unit of a document.
type Element struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Content  Content          `json:"content"`
	Source   Source           `json:"source"`
	Metadata *ElementMetadata `json:"metadata,omitempty"`
}

// AbstractEntry is one language's abstract text.
type AbstractEntry struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Abstract is a document abstract: a single string when one language was
// found, a list of {language,text} entries when the document carries abstracts
// in more than one language. Serialized accordingly.
type Abstract struct {
	Entries []AbstractEntry
}

// IsZero reports whether no abstract was recovered.
func (a Abstract) IsZero() bool { return len(a.Entries) == 0 }

// BodyRegion is the detected substantive-content interval plus how it was
// found, for diagnosability.
type BodyRegion struct {
	StartSeq int    `json:"start_seq"`
	EndSeq   int    `json:"end_seq"`
	Method   string `json:"method"`
}

// Region is one head/body/tail interval, inclusive on both ends and 1-based.
// An empty interval is expressed as EndSeq < StartSeq.
type Region struct {
	StartSeq int `json:"start_seq"`
	EndSeq   int `json:"end_seq"`
}

// Empty reports whether the interval contains no elements.
func (r Region) Empty() bool { return r.EndSeq < r.StartSeq }

// RegionDivision partitions [1, total_elements] into head, body and tail.
type RegionDivision struct {
	Head Region `json:"head"`
	Body Region `json:"body"`
	Tail Region `json:"tail"`
}

// BibliographicMetadata is structured metadata extracted from the head region
// by the model-backed metadata stage.
type BibliographicMetadata struct {
	Title        string   `json:"title,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Affiliations []string `json:"affiliations,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Venue        string   `json:"venue,omitempty"`
	Year         string   `json:"year,omitempty"`
}

// ReferenceEntry is one bibliography entry extracted from the tail region.
type ReferenceEntry struct {
	Index int    `json:"index,omitempty"`
	Text  string `json:"text"`
}

// Metadata is the document-level metadata block.
type Metadata struct {
	DocID          string                 `json:"doc_id"`
	DocTitle       string                 `json:"doc_title"`
	ParseStage     string                 `json:"parse_stage"`
	Language       string                 `json:"language"`
	SourceFile     string                 `json:"source_file"`
	PDFPath        string                 `json:"pdf_path,omitempty"`
	TotalPages     int                    `json:"total_pages"`
	TotalElements  int                    `json:"total_elements"`
	Abstract       *Abstract              `json:"abstract,omitempty"`
	RegionDivision *RegionDivision        `json:"region_division,omitempty"`
	Bibliographic  *BibliographicMetadata `json:"bibliographic,omitempty"`
	References     []ReferenceEntry       `json:"references,omitempty"`
}

// Document is the canonical per-document output of the pipeline.
type Document struct {
	Metadata Metadata   `json:"metadata"`
	Elements []*Element `json:"elements"`
}

// ElementID formats the stable element identifier for a 1-based sequence
// number: {doc_id}_elem_{6-digit sequence}.
func ElementID(docID string, seq int) string {
	return fmt.Sprintf("%s_elem_%06d", docID, seq)
}

// Renumber rewrites element IDs densely from 1 in array order and updates the
// total-element count. Every stage that adds or removes elements must call it
// before handing the document on.
func (d *Document) Renumber() {
	for i, el := range d.Elements {
		el.ID = ElementID(d.Metadata.DocID, i+1)
	}
	d.Metadata.TotalElements = len(d.Elements)
}

// CheckDense panics when element IDs are not exactly 1..N in array order.
// Downstream stages trust ID density and order; violating it is a programming
// error, not an input condition.
func (d *Document) CheckDense() {
	for i, el := range d.Elements {
		want := ElementID(d.Metadata.DocID, i+1)
		if el.ID != want {
			panic(fmt.Sprintf("document %s: element %d has id %q, want %q", d.Metadata.DocID, i, el.ID, want))
		}
	}
	if d.Metadata.TotalElements != len(d.Elements) {
		panic(fmt.Sprintf("document %s: total_elements=%d, have %d elements", d.Metadata.DocID, d.Metadata.TotalElements, len(d.Elements)))
	}
}
