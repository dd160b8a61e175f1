package docconv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the conversion tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerConvertTool(srv)
	p.registerDetectTool(srv)
	p.registerFormatsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addJSONTool wires a typed endpoint behind the AddTool callback shape:
// decode arguments, run, marshal the response into a text content block.
// Endpoint errors become tool errors rather than protocol errors.
func addJSONTool(srv *mcp.Server, tool *mcp.Tool, endpoint func(ctx context.Context, args json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := endpoint(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- convert ---

type convertReq struct {
	Path     string `json:"path"`
	ImageDir string `json:"image_dir,omitempty"`
}

func (p *Pipeline) registerConvertTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docconv_convert",
		Description: "Convert a document file (hwp, hwpx, pdf, docx, html, epub, md, txt, csv) to Markdown.",
		InputSchema: inputSchema(map[string]any{
			"path":      map[string]any{"type": "string", "description": "File path to convert"},
			"image_dir": map[string]any{"type": "string", "description": "Directory for extracted images (omit to skip images)"},
		}, []string{"path"}),
	}
	addJSONTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r convertReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		var opts []ConvertOption
		if r.ImageDir != "" {
			opts = append(opts, WithImageDir(r.ImageDir))
		}
		return p.Convert(ctx, r.Path, opts...)
	})
}

// --- detect ---

type detectReq struct {
	Path string `json:"path"`
}

func (p *Pipeline) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docconv_detect",
		Description: "Detect the format of a document file from its extension.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path to detect"},
		}, []string{"path"}),
	}
	addJSONTool(srv, tool, func(_ context.Context, args json.RawMessage) (any, error) {
		var r detectReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		format, err := p.Detect(r.Path)
		if err != nil {
			return nil, err
		}
		return map[string]any{"format": string(format)}, nil
	})
}

// --- formats ---

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docconv_formats",
		Description: "List all supported document formats.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addJSONTool(srv, tool, func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]any{"formats": SupportedFormats()}, nil
	})
}
