// Package server implements the document MCP server: the tool catalog the
// agent drives, the shared document workspace behind it, and the HTTP
// surface (SSE endpoint, document upload route).
package server

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/okriek/inkwell/document"
	"github.com/okriek/inkwell/errors"
)

type createDocumentArgs struct {
	Prompt string `json:"prompt" jsonschema:"the prompt text that motivates the new document"`
}

type addTitleArgs struct {
	Title string `json:"title" jsonschema:"the title text to add or update on the document"`
}

type addSectionHeadingArgs struct {
	SectionHeading string `json:"section_heading" jsonschema:"the text to use for the section heading"`
	SectionLevel   int    `json:"section_level" jsonschema:"the level of the heading starting from 1, where 1 is the highest level"`
}

type addParagraphArgs struct {
	Paragraph string `json:"paragraph" jsonschema:"the text content to add as a paragraph"`
}

type openListArgs struct {
	Ordered bool `json:"ordered" jsonschema:"whether the list is numbered (true) or bulleted (false)"`
}

type addListItemArgs struct {
	Text string `json:"text" jsonschema:"the text of the list item"`
}

type emptyArgs struct{}

type addTableFromHTMLArgs struct {
	HTML string `json:"html" jsonschema:"an HTML fragment containing a table element to import"`
}

// NewMCPServer builds the MCP server exposing the document tool catalog
// over the given workspace.
func NewMCPServer(ws *Workspace) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "inkwell-document-server", Version: "v0.1.0"}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_document",
		Description: "Create a new document from a prompt and make it the document being edited.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[createDocumentArgs]) (*mcp.CallToolResultFor[any], error) {
		doc, err := ws.Create(params.Arguments.Prompt)
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_title",
		Description: "Add or update the title of the document being edited. The document must already exist.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[addTitleArgs]) (*mcp.CallToolResultFor[any], error) {
		doc, err := ws.Update(func(d *document.Document) error {
			return d.AddTitle(params.Arguments.Title)
		})
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_section_heading",
		Description: "Add a section heading with the given text and level to the document being edited.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[addSectionHeadingArgs]) (*mcp.CallToolResultFor[any], error) {
		doc, err := ws.Update(func(d *document.Document) error {
			return d.AddSectionHeading(params.Arguments.SectionHeading, params.Arguments.SectionLevel)
		})
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_paragraph",
		Description: "Add a paragraph of text to the document being edited.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[addParagraphArgs]) (*mcp.CallToolResultFor[any], error) {
		doc, err := ws.Update(func(d *document.Document) error {
			return d.AddParagraph(params.Arguments.Paragraph)
		})
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "open_list",
		Description: "Open a new list in the document being edited. Every opened list must later be closed with close_list.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[openListArgs]) (*mcp.CallToolResultFor[any], error) {
		doc, err := ws.Update(func(d *document.Document) error {
			d.OpenList(params.Arguments.Ordered)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_list_item",
		Description: "Add an item to the currently open list. A list must be open.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[addListItemArgs]) (*mcp.CallToolResultFor[any], error) {
		doc, err := ws.Update(func(d *document.Document) error {
			return d.AddListItem(params.Arguments.Text)
		})
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "close_list",
		Description: "Close the currently open list in the document being edited.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[emptyArgs]) (*mcp.CallToolResultFor[any], error) {
		doc, err := ws.Update(func(d *document.Document) error {
			return d.CloseList()
		})
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "add_table_from_html",
		Description: "Parse an HTML fragment containing a table and add the table to the document being edited.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[addTableFromHTMLArgs]) (*mcp.CallToolResultFor[any], error) {
		table, err := document.ParseHTMLTable(params.Arguments.HTML)
		if err != nil {
			return nil, err
		}
		doc, err := ws.Update(func(d *document.Document) error {
			return d.AddTable(table)
		})
		if err != nil {
			return nil, err
		}
		return documentResult(doc)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "export_to_markdown",
		Description: "Export the document being edited to a markdown formatted string.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[emptyArgs]) (*mcp.CallToolResultFor[any], error) {
		markdown, err := ws.ExportMarkdown()
		if err != nil {
			return nil, err
		}
		return textResult(markdown)
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "save_to_cache",
		Description: "Render the document being edited to markdown and save it into the local cache, returning the document key under which the file server exposes it.",
	}, func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[emptyArgs]) (*mcp.CallToolResultFor[any], error) {
		key, err := ws.SaveToCache()
		if err != nil {
			return nil, err
		}
		return textResult(key)
	})

	return srv
}

// documentResult serializes the document dict as the tool's text content,
// matching the wire form the upload endpoint accepts.
func documentResult(doc *document.Document) (*mcp.CallToolResultFor[any], error) {
	dict, err := doc.ExportDict()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(dict)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize document result")
	}
	return textResult(string(raw))
}

func textResult(text string) (*mcp.CallToolResultFor[any], error) {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}
