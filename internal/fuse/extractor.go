package fuse

import (
	"math"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/structpipe/structpipe/internal/document"
	"github.com/structpipe/structpipe/internal/geometry"
)

// Extractor fuses the raw conversion artifacts of one document directory into
// the canonical element document.
type Extractor struct {
	// Tolerance is the centroid distance in pixels under which a primary
	// element and a secondary asset candidate are considered the same.
	// Zero selects the default.
	Tolerance float64
	// PDFDir, when set, is recorded as the location of the source PDFs.
	PDFDir string
}

func (e *Extractor) tolerance() float64 {
	if e.Tolerance > 0 {
		return e.Tolerance
	}
	return geometry.MatchTolerance
}

type assetKey struct {
	elementType string
	page        int
}

// assetIndex groups the secondary source's asset-bearing entries by canonical
// type and zero-based page for centroid matching.
type assetIndex map[assetKey][]RawContentItem

func buildAssetIndex(items []RawContentItem) assetIndex {
	idx := assetIndex{}
	for _, it := range items {
		t := ClassifyType(it.Type)
		if t != document.TypeTable && t != document.TypeImage {
			continue
		}
		if it.ImgPath == "" || len(it.BBox) < 4 {
			continue
		}
		k := assetKey{t, it.PageIdx}
		idx[k] = append(idx[k], it)
	}
	return idx
}

// match returns the asset path of the nearest same-type, same-page candidate
// within tolerance, or "" when none qualifies.
func (idx assetIndex) match(elementType string, page int, b geometry.BBox, pageW, pageH int, tolerance float64) string {
	cx, cy := b.Centroid()
	best := ""
	bestDist := tolerance
	for _, cand := range idx[assetKey{elementType, page}] {
		cb := geometry.ParseBBox(cand.BBox, pageW, pageH)
		ccx, ccy := cb.Centroid()
		d := math.Hypot(cx-ccx, cy-ccy)
		if d < bestDist {
			bestDist = d
			best = cand.ImgPath
		}
	}
	return best
}

// Extract runs the fusion pass over one document directory. It returns a
// document at the layout_json_parsed stage, or an error when the primary
// source cannot be read.
func (e *Extractor) Extract(dir, docID string) (*document.Document, error) {
	src, err := LoadSources(dir)
	if err != nil {
		return nil, err
	}

	pageW, pageH := src.Layout.PageSize()
	assets := buildAssetIndex(src.ContentList)
	tolerance := e.tolerance()
	sourceFile := docID + ".pdf"

	doc := &document.Document{
		Metadata: document.Metadata{
			DocID:      docID,
			DocTitle:   docID,
			ParseStage: document.StageParsed,
			SourceFile: sourceFile,
			TotalPages: len(src.Pages),
		},
	}
	if e.PDFDir != "" {
		doc.Metadata.PDFPath = filepath.Join(e.PDFDir, sourceFile)
	}

	var sectionTitle string
	misses := 0
	for pageIdx, page := range src.Pages {
		for _, raw := range page {
			elementType := ClassifyType(raw.Type)
			if isPageFurniture(elementType) {
				continue
			}

			content := buildContent(elementType, raw)
			if elementType == document.TypeTitle && content.Text != "" {
				sectionTitle = content.Text
			}

			bbox := geometry.ParseBBox(raw.BBox, pageW, pageH)
			imagePath := ""
			if elementType == document.TypeTable || elementType == document.TypeImage {
				if path := assets.match(elementType, pageIdx, bbox, pageW, pageH, tolerance); path != "" {
					imagePath = filepath.Join(dir, path)
				} else {
					misses++
				}
			}
			// a table with nothing but a matched asset is still worth keeping
			if imagePath == "" && isEmptyContent(elementType, content) {
				continue
			}

			el := &document.Element{
				Type:    elementType,
				Content: content,
				Source: document.Source{
					File:      sourceFile,
					Page:      pageIdx,
					BBox:      bbox,
					ImagePath: imagePath,
				},
				Metadata: buildMetadata(elementType, raw, content),
			}
			// titles name their section themselves; only the elements under
			// them carry the enclosing title
			if elementType != document.TypeTitle {
				el.Source.SectionTitle = sectionTitle
			}

			doc.Elements = append(doc.Elements, el)
		}
	}
	if misses > 0 {
		log.Debug().Str("doc", docID).Int("count", misses).Msg("assets without a matching secondary entry")
	}

	doc.Renumber()
	doc.Metadata.Language = e.detectDocLanguage(doc)
	if abstract := recoverAbstract(doc.Elements); abstract != nil {
		doc.Metadata.Abstract = abstract
	}
	doc.CheckDense()
	return doc, nil
}

// detectDocLanguage classifies the document by its first paragraph. Documents
// without any paragraph default to English.
func (e *Extractor) detectDocLanguage(doc *document.Document) string {
	for _, el := range doc.Elements {
		if el.Type == document.TypeParagraph {
			return DetectLanguage(el.Content.Text)
		}
	}
	return "en"
}
