package region

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/structpipe/structpipe/internal/document"
)

// Body-region detection methods, recorded for diagnosability.
const (
	MethodPaired    = "paired"
	MethodFallback  = "fallback"
	MethodTitleSpan = "title_span"
	MethodDefault   = "default"
)

// Segmenter divides documents into head/body/tail regions.
type Segmenter struct {
	cfg Config
}

// NewSegmenter returns a segmenter with the given thresholds; zero fields
// fall back to the defaults.
func NewSegmenter(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg.withDefaults()}
}

type titleItem struct {
	seq  int
	text string
}

// collect classifies every element once: title elements by their full text,
// and every element's leading label against the marker predicates in priority
// order. Both feed region detection, so a "References" paragraph counts even
// when the converter missed the heading.
func (s *Segmenter) collect(elements []*document.Element) (titles []titleItem, markers []marker) {
	for i, el := range elements {
		seq := i + 1
		text := el.Content.Text
		if el.Type == document.TypeTitle && text != "" {
			titles = append(titles, titleItem{seq: seq, text: text})
		}
		label := s.cfg.leadingLabel(text)
		if label == "" {
			continue
		}
		switch {
		case s.cfg.isReferencesMarker(label):
			markers = append(markers, marker{seq, roleReferences})
		case isTOCHeader(label):
			markers = append(markers, marker{seq, roleTOC})
		case s.cfg.isTailStart(label):
			markers = append(markers, marker{seq, roleTail})
		case isFrontMatter(label):
			markers = append(markers, marker{seq, roleFrontMatter})
		case s.cfg.isBodyStart(label):
			markers = append(markers, marker{seq, roleBodyStart})
		}
	}
	return titles, markers
}

type event struct {
	seq   int
	close bool
}

// pairBody matches major body-start headings against references markers like
// brackets: a heading opens, a references marker closes the most recent open.
// A table of contents produces its own short-span pair, so the widest span is
// the real body; ties go to the earliest start. Returns ok=false when no pair
// forms.
func (s *Segmenter) pairBody(titles []titleItem, refSeqs []int) (start, end int, ok bool) {
	var events []event
	for _, t := range titles {
		if s.cfg.isMajorBodyStart(t.text) {
			events = append(events, event{seq: t.seq})
		}
	}
	for _, seq := range refSeqs {
		events = append(events, event{seq: seq, close: true})
	}
	if len(events) == 0 {
		return 0, 0, false
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].seq != events[j].seq {
			return events[i].seq < events[j].seq
		}
		return !events[i].close && events[j].close
	})

	var stack []int
	bestSpan := -1
	for _, ev := range events {
		if !ev.close {
			stack = append(stack, ev.seq)
			continue
		}
		if len(stack) == 0 {
			continue
		}
		open := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		span := ev.seq - open
		if span > bestSpan || (span == bestSpan && open < start) {
			bestSpan = span
			start, end = open, ev.seq
		}
	}
	if bestSpan < 0 {
		return 0, 0, false
	}
	return start, max(1, end-1), true
}

// detectBody finds the substantive-content interval.
func (s *Segmenter) detectBody(titles []titleItem, markers []marker, total int) document.BodyRegion {
	if len(titles) == 0 && len(markers) == 0 {
		return document.BodyRegion{StartSeq: 1, EndSeq: max(1, total), Method: MethodDefault}
	}

	seqsBy := func(role string, pred func(string) bool) []int {
		var out []int
		for _, t := range titles {
			if pred(t.text) {
				out = append(out, t.seq)
			}
		}
		for _, m := range markers {
			if m.role == role {
				out = append(out, m.seq)
			}
		}
		return out
	}
	refSeqs := seqsBy(roleReferences, s.cfg.isReferencesMarker)
	tocSeqs := seqsBy(roleTOC, isTOCTitle)
	tailSeqs := seqsBy(roleTail, s.cfg.isTailStart)
	frontSeqs := seqsBy(roleFrontMatter, isFrontMatter)

	tocSeq := 0
	for _, seq := range tocSeqs {
		tocSeq = max(tocSeq, seq)
	}
	// the body can start no earlier than the element after the last piece of
	// front matter or table of contents
	afterHead := 0
	for _, seq := range append(append([]int{}, frontSeqs...), tocSeqs...) {
		afterHead = max(afterHead, seq+1)
	}

	if start, end, ok := s.pairBody(titles, refSeqs); ok {
		if afterHead > 0 && afterHead <= end {
			start = max(start, afterHead)
		}
		return document.BodyRegion{StartSeq: start, EndSeq: end, Method: MethodPaired}
	}

	// one-sided brackets: derive the end from references or tail markers,
	// then the broadest usable start
	allSeqs := make([]int, 0, len(titles)+len(markers))
	for _, t := range titles {
		allSeqs = append(allSeqs, t.seq)
	}
	for _, m := range markers {
		allSeqs = append(allSeqs, m.seq)
	}

	end := 0
	switch {
	case len(refSeqs) > 0:
		end = max(1, maxOf(refSeqs)-1)
	case len(tailSeqs) > 0:
		end = max(1, minOf(tailSeqs)-1)
	default:
		end = maxOf(allSeqs)
	}

	startSeqs := seqsBy(roleBodyStart, s.cfg.isBodyStart)
	var candidates []int
	for _, seq := range startSeqs {
		if seq > tocSeq && seq <= end {
			candidates = append(candidates, seq)
		}
	}

	start := 1
	method := MethodFallback
	switch {
	case len(candidates) > 0:
		start = minOf(candidates)
	case len(refSeqs) > 0 || len(tailSeqs) > 0:
		start = 1
	case len(titles) > 0:
		// no end marker either: take the widest title-to-title span past
		// the table of contents
		method = MethodTitleSpan
		start, end = titles[0].seq, titles[0].seq
		bestSpan := -1
		for i := range titles {
			for j := i + 1; j < len(titles); j++ {
				if titles[i].seq <= tocSeq || titles[j].seq <= tocSeq {
					continue
				}
				if span := titles[j].seq - titles[i].seq; span > bestSpan {
					bestSpan = span
					start, end = titles[i].seq, titles[j].seq
				}
			}
		}
	}

	if afterHead > 0 && afterHead <= end {
		start = max(start, afterHead)
	}
	return document.BodyRegion{StartSeq: start, EndSeq: end, Method: method}
}

// division expands a body interval into the full head/body/tail partition.
// When markers put nothing in the head or tail, page position substitutes:
// first-page elements become the head, last-page elements the tail, and the
// body shrinks to the remainder so the three regions still partition
// [1, total].
func (s *Segmenter) division(body document.BodyRegion, elements []*document.Element) document.RegionDivision {
	total := len(elements)
	if total == 0 {
		empty := document.Region{StartSeq: 1, EndSeq: 0}
		return document.RegionDivision{Head: empty, Body: empty, Tail: empty}
	}

	headEnd := max(0, body.StartSeq-1)
	tailStart := min(total+1, body.EndSeq+1)

	firstPage, lastPage := elements[0].Source.Page, elements[0].Source.Page
	for _, el := range elements {
		firstPage = min(firstPage, el.Source.Page)
		lastPage = max(lastPage, el.Source.Page)
	}
	if firstPage < lastPage {
		if headEnd < 1 {
			for i, el := range elements {
				if el.Source.Page == firstPage {
					headEnd = i + 1
				}
			}
		}
		if tailStart > total {
			for i, el := range elements {
				if el.Source.Page == lastPage {
					tailStart = i + 1
					break
				}
			}
		}
	}

	headEnd = min(headEnd, total)
	tailStart = min(max(tailStart, headEnd+1), total+1)

	return document.RegionDivision{
		Head: document.Region{StartSeq: 1, EndSeq: headEnd},
		Body: document.Region{StartSeq: headEnd + 1, EndSeq: tailStart - 1},
		Tail: document.Region{StartSeq: tailStart, EndSeq: total},
	}
}

// Segment computes and records the region division for a document, advancing
// it to the region_divided stage. The returned body region carries the
// detection method for logging.
func (s *Segmenter) Segment(doc *document.Document) document.BodyRegion {
	titles, markers := s.collect(doc.Elements)
	body := s.detectBody(titles, markers, len(doc.Elements))

	div := s.division(body, doc.Elements)
	doc.Metadata.RegionDivision = &div
	doc.Metadata.ParseStage = document.StageDivided

	log.Debug().
		Str("doc", doc.Metadata.DocID).
		Str("method", body.Method).
		Int("head_end", div.Head.EndSeq).
		Int("body_start", div.Body.StartSeq).
		Int("body_end", div.Body.EndSeq).
		Int("tail_start", div.Tail.StartSeq).
		Msg("region division")
	return body
}

func minOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		m = min(m, x)
	}
	return m
}

func maxOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		m = max(m, x)
	}
	return m
}
