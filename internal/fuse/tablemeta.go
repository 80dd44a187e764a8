package fuse

import (
	"strings"

	"golang.org/x/net/html"
)

// tableDims estimates the data-row and column counts of a table from its HTML
// body. The first row is treated as a header when more than one row exists.
// A table that parses to no rows reports zero for both.
func tableDims(tableHTML string) (rows, cols int) {
	if strings.TrimSpace(tableHTML) == "" {
		return 0, 0
	}
	node, err := html.Parse(strings.NewReader(tableHTML))
	if err != nil {
		return 0, 0
	}

	var rowCells []int
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := 0
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells++
				}
			}
			rowCells = append(rowCells, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	if len(rowCells) == 0 {
		return 0, 0
	}
	for _, c := range rowCells {
		if c > cols {
			cols = c
		}
	}
	rows = len(rowCells)
	if rows > 1 {
		rows--
	}
	return rows, cols
}
