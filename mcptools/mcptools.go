// Package mcptools exposes the node operations as MCP tools.
//
// Each tool is a Definition (the mcp.Tool schema) paired with a handler
// that calls the node service. Engine errors come back as tool errors, not
// protocol errors, so the client sees the message.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ammiranda/td/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool pairs an MCP tool schema with its handler.
type Tool struct {
	Definition mcp.Tool
	Handle     server.ToolHandlerFunc
}

// NewServer builds an MCP server with every node tool registered.
func NewServer(svc *service.NodeService, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"td",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range Tools(svc) {
		s.AddTool(t.Definition, t.Handle)
	}
	return s
}

const instructions = "td manages a task hierarchy: sector > area > project > section > task > subtask. " +
	"Nodes are addressed by a slash-separated path plus a title, or by the full \"path/title\" address alone. " +
	"Titles wrapped in *asterisks* are critical."

// Tools returns every node tool backed by svc.
func Tools(svc *service.NodeService) []Tool {
	h := &handlers{svc: svc}
	return []Tool{
		{createDefinition(), h.create},
		{readDefinition(), h.read},
		{lineageDefinition(), h.lineage},
		{updateDefinition(), h.update},
		{moveDefinition(), h.move},
		{addressDefinition("td_promote", "Move a node and its subtree up one level, making it a sibling of its parent."), h.promote},
		{addressDefinition("td_toggle_complete", "Toggle a node between completed and active."), h.toggleComplete},
		{addressDefinition("td_toggle_critical", "Mark or unmark a node as critical by wrapping its title in asterisks."), h.toggleCritical},
		{deleteDefinition(), h.remove},
		{treeDefinition(), h.showTree},
	}
}

// jsonResult encodes v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// optionalString returns the argument and whether it was present at all,
// so callers can tell an explicit "" from a missing key.
func optionalString(req mcp.CallToolRequest, key string) (string, bool) {
	v, ok := req.GetArguments()[key].(string)
	return v, ok
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func withAddress(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append([]mcp.ToolOption{
		mcp.WithString("path",
			mcp.Description("Parent path (\"work/q3\") or, without title, the full node address (\"work/q3/report\")"),
		),
		mcp.WithString("title",
			mcp.Description("Node title; combined with path when both are given"),
		),
	}, opts...)
}

type handlers struct {
	svc *service.NodeService
}

func (h *handlers) call(ctx context.Context, fn func(context.Context) (any, error)) (*mcp.CallToolResult, error) {
	v, err := fn(ctx)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(v)
}
