package wikipedia

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"market_dashboard/internal/domain/marketdata"
	"market_dashboard/internal/feature/tickers/domain/entity"
)

// parseFirstTable reads the first <table> in the document and returns its rows as tickers,
// in table order. Columns are located by header text: a missing symbol column is a
// format change, a missing name column leaves names empty.
func parseFirstTable(r io.Reader, symbolCol, nameCol string) ([]entity.Ticker, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", marketdata.ErrSourceFormatChanged)
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, fmt.Errorf("no table in document: %w", marketdata.ErrSourceFormatChanged)
	}

	var (
		header  []string
		symIdx  = -1
		nameIdx = -1
		out     []entity.Ticker
	)
	for _, row := range tableRows(table) {
		cells, isHeader := rowCells(row)
		if len(cells) == 0 {
			continue
		}
		if header == nil {
			if !isHeader {
				continue
			}
			header = cells
			symIdx = indexOf(header, symbolCol)
			if symIdx < 0 {
				return nil, fmt.Errorf("column %q not found in %v: %w", symbolCol, header, marketdata.ErrSourceFormatChanged)
			}
			if nameCol != "" {
				nameIdx = indexOf(header, nameCol)
			}
			continue
		}
		if isHeader || symIdx >= len(cells) {
			continue
		}

		t := entity.Ticker{Symbol: cells[symIdx]}
		if nameIdx >= 0 && nameIdx < len(cells) {
			t.Name = cells[nameIdx]
		}
		out = append(out, t)
	}

	if header == nil {
		return nil, fmt.Errorf("table has no header row: %w", marketdata.ErrSourceFormatChanged)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("table has no data rows: %w", marketdata.ErrSourceFormatChanged)
	}
	return out, nil
}

// findFirst returns the first element named tag in document order.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// tableRows collects the <tr> elements of table, skipping rows of nested tables.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				// nested
			case "tr":
				rows = append(rows, c)
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

// rowCells returns the text of each <th>/<td> cell; isHeader is true when every cell is a <th>.
func rowCells(row *html.Node) (cells []string, isHeader bool) {
	isHeader = true
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "th" && c.Data != "td") {
			continue
		}
		if c.Data == "td" {
			isHeader = false
		}
		cells = append(cells, cellText(c))
	}
	return cells, isHeader
}

// cellText flattens the text content of a cell, collapsing whitespace.
// Footnote markers (<sup>) and nested tables are dropped.
func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case n.Type == html.ElementNode && (n.Data == "sup" || n.Data == "table"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}
