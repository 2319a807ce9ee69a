package document

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/okriek/inkwell/errors"
)

// ParseHTMLTable parses the first <table> element in the given HTML
// fragment into a Table. Cells in the first row count as the header when
// they are <th> cells or the row sits inside a <thead>. Ragged rows are
// padded to the widest row.
func ParseHTMLTable(fragment string) (*Table, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse HTML")
	}

	tableNode := findElement(root, "table")
	if tableNode == nil {
		return nil, errors.New("no <table> element found in HTML")
	}

	var header []string
	var rows [][]string
	collectRows(tableNode, false, &header, &rows)

	if len(header) == 0 && len(rows) == 0 {
		return nil, errors.New("table contains no rows")
	}

	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}

	return &Table{Header: header, Rows: rows}, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// collectRows walks the table subtree gathering <tr> rows. inHead is true
// inside a <thead> section.
func collectRows(n *html.Node, inHead bool, header *[]string, rows *[][]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead":
			collectRows(c, true, header, rows)
		case "tbody", "tfoot":
			collectRows(c, false, header, rows)
		case "tr":
			cells, isHeader := rowCells(c)
			if (inHead || isHeader) && len(*header) == 0 {
				*header = cells
			} else {
				*rows = append(*rows, cells)
			}
		case "table":
			// Nested tables are flattened into the outer one.
			collectRows(c, false, header, rows)
		}
	}
}

// rowCells extracts the cell texts of one <tr>. isHeader is true when the
// row consists solely of <th> cells.
func rowCells(tr *html.Node) (cells []string, isHeader bool) {
	isHeader = true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			cells = append(cells, nodeText(c))
		case "td":
			cells = append(cells, nodeText(c))
			isHeader = false
		}
	}
	if len(cells) == 0 {
		isHeader = false
	}
	return cells, isHeader
}

// nodeText concatenates and normalizes the text content under a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
