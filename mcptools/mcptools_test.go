package mcptools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/repository"
	"github.com/ammiranda/td/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTools(t *testing.T) (map[string]Tool, *service.NodeService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewNodeService(repository.NewMemoryRepository(), service.WithLogger(logger))
	tools := map[string]Tool{}
	for _, tool := range Tools(svc) {
		tools[tool.Definition.Name] = tool
	}
	return tools, svc
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func invoke(t *testing.T, tools map[string]Tool, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool, ok := tools[name]
	require.True(t, ok, "tool %s is registered", name)
	res, err := tool.Handle(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestToolDefinitions(t *testing.T) {
	tools, _ := newTestTools(t)

	names := []string{
		"td_create", "td_read", "td_lineage", "td_update", "td_move",
		"td_promote", "td_toggle_complete", "td_toggle_critical", "td_delete", "td_tree",
	}
	assert.Len(t, tools, len(names))
	for _, name := range names {
		tool, ok := tools[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, tool.Definition.Description, name)
	}

	props := tools["td_update"].Definition.InputSchema.Properties
	for _, key := range []string{"path", "title", "new_title", "new_path", "new_status", "new_order", "new_meta"} {
		assert.Contains(t, props, key)
	}
	assert.Contains(t, tools["td_move"].Definition.InputSchema.Required, "new_parent")
}

func TestCreateAndRead(t *testing.T) {
	tools, _ := newTestTools(t)

	res := invoke(t, tools, "td_create", map[string]any{"path": "work/x/sprint"})
	require.False(t, res.IsError, resultText(res))
	var created []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &created))
	require.Len(t, created, 1)
	assert.Equal(t, "project", created[0]["type"])

	res = invoke(t, tools, "td_read", map[string]any{"path": "work", "title": "x"})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(res), `"title": "x"`)

	res = invoke(t, tools, "td_lineage", map[string]any{"path": "work/x/sprint"})
	require.False(t, res.IsError)
	var chain []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &chain))
	assert.Len(t, chain, 3)

	res = invoke(t, tools, "td_read", map[string]any{"path": "work/missing"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "not found")
}

func TestCreateWithParentID(t *testing.T) {
	tools, svc := newTestTools(t)
	nodes, err := svc.Create(context.Background(), models.NodeCreate{Path: "work"})
	require.NoError(t, err)

	res := invoke(t, tools, "td_create", map[string]any{"title": "x;y", "parent_id": nodes[0].ID.String()})
	require.False(t, res.IsError, resultText(res))
	var created []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &created))
	assert.Len(t, created, 2)

	res = invoke(t, tools, "td_create", map[string]any{"title": "z", "parent_id": "nope"})
	assert.True(t, res.IsError)
}

func TestUpdateAndMove(t *testing.T) {
	tools, svc := newTestTools(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, models.NodeCreate{Path: "work/x/sprint"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.NodeCreate{Path: "home"})
	require.NoError(t, err)

	res := invoke(t, tools, "td_update", map[string]any{"path": "work/x", "new_title": "y", "new_order": 2.0, "new_status": "archived"})
	require.False(t, res.IsError, resultText(res))
	n, err := svc.Read(ctx, models.ReadAt("work/y"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, n.Status)
	assert.Equal(t, 2.0, *n.Order)

	res = invoke(t, tools, "td_move", map[string]any{"path": "work/y", "new_parent": "home"})
	require.False(t, res.IsError, resultText(res))
	_, err = svc.Read(ctx, models.ReadAt("home/y/sprint"))
	assert.NoError(t, err)

	res = invoke(t, tools, "td_update", map[string]any{"path": "home/y", "new_path": ""})
	require.False(t, res.IsError, resultText(res))
	n, err = svc.Read(ctx, models.ReadAt("y"))
	require.NoError(t, err)
	assert.Equal(t, models.Sector, n.Type)

	res = invoke(t, tools, "td_move", map[string]any{"path": "y"})
	assert.True(t, res.IsError)

	res = invoke(t, tools, "td_move", map[string]any{"path": "y", "new_parent": "nowhere"})
	assert.True(t, res.IsError)
}

func TestActions(t *testing.T) {
	tools, svc := newTestTools(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, models.NodeCreate{Path: "work/x/sprint"})
	require.NoError(t, err)

	res := invoke(t, tools, "td_promote", map[string]any{"path": "work/x/sprint"})
	require.False(t, res.IsError, resultText(res))
	_, err = svc.Read(ctx, models.ReadAt("work/sprint"))
	require.NoError(t, err)

	res = invoke(t, tools, "td_promote", map[string]any{"path": "work"})
	assert.True(t, res.IsError)

	res = invoke(t, tools, "td_toggle_complete", map[string]any{"path": "work/sprint"})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(res), `"status": "completed"`)

	res = invoke(t, tools, "td_toggle_critical", map[string]any{"path": "work/x"})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(res), `"title": "*x*"`)
}

func TestTreeAndDelete(t *testing.T) {
	tools, svc := newTestTools(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, models.NodeCreate{Path: "work/*x*"})
	require.NoError(t, err)
	home, err := svc.Create(ctx, models.NodeCreate{Path: "home"})
	require.NoError(t, err)

	res := invoke(t, tools, "td_tree", map[string]any{})
	require.False(t, res.IsError)
	var full map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &full))
	assert.Len(t, full, 2)

	res = invoke(t, tools, "td_tree", map[string]any{"critical": true, "format": "outline"})
	require.False(t, res.IsError)
	assert.Equal(t, "- [ ] work (sr)\n  - [ ] *x* (a)\n", resultText(res))

	res = invoke(t, tools, "td_tree", map[string]any{"format": "yaml"})
	assert.True(t, res.IsError)

	res = invoke(t, tools, "td_delete", map[string]any{"path": "work"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"deleted":2}`, resultText(res))

	res = invoke(t, tools, "td_delete", map[string]any{"id": home[0].ID.String()})
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"deleted":1}`, resultText(res))

	res = invoke(t, tools, "td_delete", map[string]any{"id": "bogus"})
	assert.True(t, res.IsError)
}

func TestNewServer(t *testing.T) {
	_, svc := newTestTools(t)
	assert.NotNil(t, NewServer(svc, "test"))
}
