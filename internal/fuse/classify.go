package fuse

import "github.com/structpipe/structpipe/internal/document"

// typeMapping normalizes the type tags used across the raw sources onto the
// canonical element-type set. Tags without a mapping pass through unchanged.
var typeMapping = map[string]string{
	"text":        document.TypeParagraph,
	"paragraph":   document.TypeParagraph,
	"title":       document.TypeTitle,
	"table":       document.TypeTable,
	"image":       document.TypeImage,
	"figure":      document.TypeImage,
	"code":        document.TypeCode,
	"equation":    document.TypeEquation,
	"list":        document.TypeList,
	"header":      document.TypePageHeader,
	"page_header": document.TypePageHeader,
	"page_footer": document.TypePageFooter,
	"page_number": document.TypePageNumber,
	"reference":   document.TypeReference,
}

// ClassifyType maps a source-specific type tag onto the canonical enum.
func ClassifyType(tag string) string {
	if mapped, ok := typeMapping[tag]; ok {
		return mapped
	}
	return tag
}

// isPageFurniture reports whether a canonical type carries no retrievable
// content and is discarded during fusion.
func isPageFurniture(elementType string) bool {
	switch elementType {
	case document.TypePageHeader, document.TypePageFooter, document.TypePageNumber:
		return true
	}
	return false
}
