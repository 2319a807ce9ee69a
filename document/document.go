// Package document implements the structured document model built by the
// MCP tool catalog: titles, section headings, paragraphs, nestable lists
// and tables, with markdown and JSON export.
package document

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okriek/inkwell/errors"
)

// ItemKind tags a body item.
type ItemKind string

const (
	KindSectionHeading ItemKind = "section_heading"
	KindParagraph      ItemKind = "paragraph"
	KindList           ItemKind = "list"
	KindTable          ItemKind = "table"
)

// Item is one body element. Kind selects which of the payload fields is
// meaningful.
type Item struct {
	Kind  ItemKind `json:"kind"`
	Text  string   `json:"text,omitempty"`
	Level int      `json:"level,omitempty"`
	List  *List    `json:"list,omitempty"`
	Table *Table   `json:"table,omitempty"`
}

// List is an ordered or unordered list. Entries may carry nested sublists.
type List struct {
	Ordered bool        `json:"ordered"`
	Entries []ListEntry `json:"entries"`
}

type ListEntry struct {
	Text string `json:"text,omitempty"`
	Sub  *List  `json:"sub,omitempty"`
}

// Table is a rectangular table with an optional header row.
type Table struct {
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
}

// Document is a structured document under construction. Body mutations go
// through the methods below, which enforce the list nesting discipline:
// while a list is open, only list items and sublists may be added.
type Document struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Prompt string `json:"prompt,omitempty"`
	Title  string `json:"title,omitempty"`
	Items  []Item `json:"items"`

	// Stack of currently open lists, innermost last. Not serialized: an
	// uploaded document starts with no open lists.
	open []*List
}

// New creates a document keyed by the md5 hash of the creating prompt, or
// by a random id when the prompt is empty.
func New(prompt string) *Document {
	key := uuid.NewString()
	if prompt != "" {
		sum := md5.Sum([]byte(prompt))
		key = hex.EncodeToString(sum[:])
	}
	return &Document{
		Key:    key,
		Name:   "Generated Document",
		Prompt: prompt,
	}
}

// AddTitle sets or replaces the document title.
func (d *Document) AddTitle(title string) error {
	if len(d.open) > 0 {
		return errors.New("a list is currently open; close the list before adding a title")
	}
	d.Title = title
	return nil
}

// AddSectionHeading appends a section heading. Level starts at 1 for the
// highest heading level.
func (d *Document) AddSectionHeading(text string, level int) error {
	if len(d.open) > 0 {
		return errors.New("a list is currently open; close the list before adding a section heading")
	}
	if level < 1 {
		return errors.New("section level must be 1 or greater, got %d", level)
	}
	d.Items = append(d.Items, Item{Kind: KindSectionHeading, Text: text, Level: level})
	return nil
}

// AddParagraph appends a paragraph of text.
func (d *Document) AddParagraph(text string) error {
	if len(d.open) > 0 {
		return errors.New("a list is currently open; close the list before adding a paragraph")
	}
	d.Items = append(d.Items, Item{Kind: KindParagraph, Text: text})
	return nil
}

// OpenList opens a new list. When another list is already open, the new
// list nests under that list's last position; otherwise it is appended to
// the document body. Every OpenList must be matched by a CloseList.
func (d *Document) OpenList(ordered bool) {
	list := &List{Ordered: ordered}
	if len(d.open) > 0 {
		parent := d.open[len(d.open)-1]
		parent.Entries = append(parent.Entries, ListEntry{Sub: list})
	} else {
		d.Items = append(d.Items, Item{Kind: KindList, List: list})
	}
	d.open = append(d.open, list)
}

// AddListItem appends an item to the innermost open list.
func (d *Document) AddListItem(text string) error {
	if len(d.open) == 0 {
		return errors.New("no list is currently open; open a list before adding list items")
	}
	list := d.open[len(d.open)-1]
	list.Entries = append(list.Entries, ListEntry{Text: text})
	return nil
}

// CloseList closes the innermost open list.
func (d *Document) CloseList() error {
	if len(d.open) == 0 {
		return errors.New("no list is currently open")
	}
	d.open = d.open[:len(d.open)-1]
	return nil
}

// HasOpenList reports whether any list is still open.
func (d *Document) HasOpenList() bool {
	return len(d.open) > 0
}

// AddTable appends a table.
func (d *Document) AddTable(table *Table) error {
	if len(d.open) > 0 {
		return errors.New("a list is currently open; close the list before adding a table")
	}
	if table == nil {
		return errors.New("table must not be nil")
	}
	d.Items = append(d.Items, Item{Kind: KindTable, Table: table})
	return nil
}

// ExportMarkdown renders the document as markdown.
func (d *Document) ExportMarkdown() string {
	var sb strings.Builder

	if d.Title != "" {
		sb.WriteString("# " + d.Title + "\n\n")
	}

	for _, item := range d.Items {
		switch item.Kind {
		case KindSectionHeading:
			// Level 1 renders below the document title, as H2.
			sb.WriteString(strings.Repeat("#", item.Level+1) + " " + item.Text + "\n\n")
		case KindParagraph:
			sb.WriteString(item.Text + "\n\n")
		case KindList:
			writeListMarkdown(&sb, item.List, 0)
			sb.WriteString("\n")
		case KindTable:
			writeTableMarkdown(&sb, item.Table)
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeListMarkdown(sb *strings.Builder, list *List, depth int) {
	if list == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	counter := 0
	for _, entry := range list.Entries {
		if entry.Sub != nil {
			writeListMarkdown(sb, entry.Sub, depth+1)
			continue
		}
		if list.Ordered {
			counter++
			fmt.Fprintf(sb, "%s%d. %s\n", indent, counter, entry.Text)
		} else {
			fmt.Fprintf(sb, "%s- %s\n", indent, entry.Text)
		}
	}
}

func writeTableMarkdown(sb *strings.Builder, table *Table) {
	if table == nil {
		return
	}
	header := table.Header
	rows := table.Rows
	if len(header) == 0 && len(rows) > 0 {
		// Markdown pipe tables require a header row.
		header = rows[0]
		rows = rows[1:]
	}
	if len(header) == 0 {
		return
	}

	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(header))
		copy(cells, row)
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// MarshalStored serializes the document for persistence.
func (d *Document) MarshalStored() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize document %s", d.Key)
	}
	return raw, nil
}

// UnmarshalStored deserializes a document produced by MarshalStored or
// received from the upload endpoint. The document starts with no open
// lists.
func UnmarshalStored(raw []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrapf(err, "failed to parse document")
	}
	return &d, nil
}

// ExportDict renders the document as a JSON-serializable map, the wire
// form used by tool results and the upload endpoint.
func (d *Document) ExportDict() (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize document %s", d.Key)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to round-trip document %s", d.Key)
	}
	return m, nil
}
