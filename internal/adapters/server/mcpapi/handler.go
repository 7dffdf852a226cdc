// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/outliner/internal/adapters/server/common"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the sheet tools.
func NewHandler(cfg Config, sheets common.SheetService) (*Handler, error) {
	if sheets == nil {
		return nil, fmt.Errorf("sheet service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerSheetTools(mcpSrv, sheets)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "outliner"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerSheetTools registers list/read/add tools over sheets.
func registerSheetTools(srv *mcpserver.MCPServer, sheets common.SheetService) {
	srv.AddTool(
		mcp.NewTool(
			"outliner.list_sheets",
			mcp.WithDescription("List every sheet with its kind and columns."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := sheets.ListSheets(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"sheets": rows})
			if err != nil {
				return nil, fmt.Errorf("encode list_sheets result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"outliner.get_sheet",
			mcp.WithDescription("Return one sheet's rows in tree order."),
			mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet id or name")),
			mcp.WithBoolean("all", mcp.Description("Include rows under closed containers")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			sheet, err := req.RequireString("sheet")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			tree, err := sheets.GetSheetTree(ctx, common.GetSheetTreeRequest{
				Sheet: sheet,
				All:   req.GetBool("all", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(tree)
			if err != nil {
				return nil, fmt.Errorf("encode get_sheet result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"outliner.add_entry",
			mcp.WithDescription("Append one row to a sheet, optionally under a container row."),
			mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet id or name")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Row name")),
			mcp.WithString("parent_id", mcp.Description("Container row id to add under")),
			mcp.WithString("kind", mcp.Description("Entry kind")),
			mcp.WithBoolean("container", mcp.Description("Whether the row can hold children")),
			mcp.WithNumber("points", mcp.Description("Point cost")),
			mcp.WithNumber("quantity", mcp.Description("Quantity")),
			mcp.WithNumber("weight", mcp.Description("Weight")),
			mcp.WithString("reference", mcp.Description("Page reference")),
			mcp.WithString("notes", mcp.Description("Markdown notes")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.AddEntryRequest
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.Sheet) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "sheet" not found`), nil
			}
			if strings.TrimSpace(args.Name) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "name" not found`), nil
			}
			row, err := sheets.AddEntry(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(row)
			if err != nil {
				return nil, fmt.Errorf("encode add_entry result: %w", err)
			}
			return result, nil
		},
	)
}

// invalidRequestToolResult reports argument binding failures.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrConflict):
		return mcp.NewToolResultError("conflict: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
