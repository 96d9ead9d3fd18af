package mcptools

import (
	"context"
	"fmt"

	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/tree"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

func createDefinition() mcp.Tool {
	return mcp.NewTool("td_create", withAddress(
		mcp.WithDescription(
			"Get or create a node, creating missing ancestors. "+
				"A title like \"a;b;c\" creates one sibling per piece. Existing nodes are returned unchanged.",
		),
		mcp.WithString("parent_id",
			mcp.Description("Optional parent node ID; the path is derived from it"),
		),
		mcp.WithString("meta",
			mcp.Description("Optional JSON metadata"),
		),
	)...)
}

func (h *handlers) create(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	create := models.NodeCreate{
		Title: req.GetString("title", ""),
		Path:  req.GetString("path", ""),
		Meta:  req.GetString("meta", ""),
	}
	if raw := req.GetString("parent_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parent_id %q", raw)), nil
		}
		create.ParentID = &id
	}
	return h.call(ctx, func(ctx context.Context) (any, error) {
		nodes, err := h.svc.Create(ctx, create)
		return models.NewOutputs(nodes), err
	})
}

func readRequest(req mcp.CallToolRequest) models.NodeRead {
	return models.NodeRead{Title: req.GetString("title", ""), Path: req.GetString("path", "")}
}

func readDefinition() mcp.Tool {
	return mcp.NewTool("td_read", withAddress(
		mcp.WithDescription("Return a single node by address."),
	)...)
}

func (h *handlers) read(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.call(ctx, func(ctx context.Context) (any, error) {
		n, err := h.svc.Read(ctx, readRequest(req))
		if err != nil {
			return nil, err
		}
		return models.NewOutput(n), nil
	})
}

func lineageDefinition() mcp.Tool {
	return mcp.NewTool("td_lineage", withAddress(
		mcp.WithDescription("Return a node followed by each of its ancestors up to the root."),
	)...)
}

func (h *handlers) lineage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.call(ctx, func(ctx context.Context) (any, error) {
		chain, err := h.svc.Lineage(ctx, readRequest(req))
		return models.NewOutputs(chain), err
	})
}

func updateDefinition() mcp.Tool {
	return mcp.NewTool("td_update", withAddress(
		mcp.WithDescription(
			"Rename, move or edit a node. Descendants follow a renamed or moved node. "+
				"Fails if the target address is taken or its parent does not exist.",
		),
		mcp.WithString("new_title", mcp.Description("New title")),
		mcp.WithString("new_path", mcp.Description("New parent path; an empty string moves the node to the root level")),
		mcp.WithString("new_status",
			mcp.Description("New status"),
			mcp.Enum(string(models.StatusActive), string(models.StatusCompleted), string(models.StatusArchived)),
		),
		mcp.WithNumber("new_order", mcp.Description("New sibling sort order")),
		mcp.WithString("new_meta", mcp.Description("New JSON metadata")),
	)...)
}

func (h *handlers) update(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	update := models.NodeUpdate{Title: req.GetString("title", ""), Path: req.GetString("path", "")}
	if v, ok := optionalString(req, "new_title"); ok {
		update.NewTitle = &v
	}
	if v, ok := optionalString(req, "new_path"); ok {
		update.NewPath = &v
	}
	if v, ok := optionalString(req, "new_status"); ok {
		status := models.NodeStatus(v)
		update.NewStatus = &status
	}
	if v, ok := req.GetArguments()["new_order"].(float64); ok {
		update.NewOrder = &v
	}
	if v, ok := optionalString(req, "new_meta"); ok {
		update.NewMeta = &v
	}
	return h.call(ctx, func(ctx context.Context) (any, error) {
		n, err := h.svc.Update(ctx, update)
		if err != nil {
			return nil, err
		}
		return models.NewOutput(n), nil
	})
}

func moveDefinition() mcp.Tool {
	return mcp.NewTool("td_move", withAddress(
		mcp.WithDescription("Move a node and its subtree under another parent. The parent must exist."),
		mcp.WithString("new_parent",
			mcp.Required(),
			mcp.Description("Address of the new parent; an empty string moves the node to the root level"),
		),
	)...)
}

func (h *handlers) move(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parent, ok := optionalString(req, "new_parent")
	if !ok {
		return mcp.NewToolResultError("'new_parent' is required"), nil
	}
	return h.single(ctx, req, func(ctx context.Context, r models.NodeRead) (*models.Node, error) {
		return h.svc.Move(ctx, r, parent)
	})
}

func addressDefinition(name, description string) mcp.Tool {
	return mcp.NewTool(name, withAddress(mcp.WithDescription(description))...)
}

func (h *handlers) promote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.single(ctx, req, h.svc.Promote)
}

func (h *handlers) toggleComplete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.single(ctx, req, h.svc.ToggleComplete)
}

func (h *handlers) toggleCritical(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.single(ctx, req, h.svc.ToggleCritical)
}

func (h *handlers) single(ctx context.Context, req mcp.CallToolRequest, op func(context.Context, models.NodeRead) (*models.Node, error)) (*mcp.CallToolResult, error) {
	return h.call(ctx, func(ctx context.Context) (any, error) {
		n, err := op(ctx, readRequest(req))
		if err != nil {
			return nil, err
		}
		return models.NewOutput(n), nil
	})
}

func deleteDefinition() mcp.Tool {
	return mcp.NewTool("td_delete", withAddress(
		mcp.WithDescription("Delete a node and its whole subtree, by address or by ID."),
		mcp.WithString("id", mcp.Description("Node ID; takes precedence over the address")),
	)...)
}

func (h *handlers) remove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	del := models.NodeDelete{Title: req.GetString("title", ""), Path: req.GetString("path", "")}
	if raw := req.GetString("id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid id %q", raw)), nil
		}
		del = models.NodeDelete{ID: &id}
	}
	return h.call(ctx, func(ctx context.Context) (any, error) {
		count, err := h.svc.Delete(ctx, del)
		return map[string]int{"deleted": count}, err
	})
}

func treeDefinition() mcp.Tool {
	return mcp.NewTool("td_tree",
		mcp.WithDescription("Return the live tree. Completed nodes drop out shortly after completion."),
		mcp.WithBoolean("critical", mcp.Description("Only critical nodes and their ancestors")),
		mcp.WithString("format",
			mcp.Description("json (default) or outline"),
			mcp.Enum("json", "outline"),
		),
	)
}

func (h *handlers) showTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	load := h.svc.Tree
	if boolArg(req, "critical", false) {
		load = func(ctx context.Context, _ ...uuid.UUID) (tree.Tree, error) { return h.svc.CriticalNodes(ctx) }
	}
	t, err := load(ctx)
	if err != nil {
		return errorResult(err)
	}
	switch format := req.GetString("format", "json"); format {
	case "json":
		return jsonResult(t)
	case "outline":
		return mcp.NewToolResultText(t.Outline()), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}
