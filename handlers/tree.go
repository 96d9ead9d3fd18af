package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/service"
	"github.com/ammiranda/td/tree"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NodeHandler handles node and tree HTTP requests
type NodeHandler struct {
	svc *service.NodeService
}

// NewNodeHandler creates a new NodeHandler instance
func NewNodeHandler(svc *service.NodeService) *NodeHandler {
	return &NodeHandler{svc: svc}
}

// RegisterRoutes mounts the API under r, usually the "/api" group.
func (h *NodeHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/tree", h.GetTree)
	r.GET("/lineage", h.GetLineage)

	nodes := r.Group("/nodes")
	nodes.POST("", h.CreateNode)
	nodes.GET("", h.GetNode)
	nodes.GET("/:id", h.GetNodeByID)
	nodes.PATCH("", h.UpdateNode)
	nodes.POST("/promote", h.Promote)
	nodes.POST("/complete", h.ToggleComplete)
	nodes.POST("/critical", h.ToggleCritical)
	nodes.DELETE("", h.DeleteNode)
	nodes.DELETE("/:id", h.DeleteNodeByID)
}

// GetTree returns the live tree. ?critical=true restricts it to critical
// nodes and their ancestors; ?format=outline returns a plain-text checklist
// and ?format=typed the nested typed outputs.
func (h *NodeHandler) GetTree(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		t   tree.Tree
		err error
	)
	if critical, _ := strconv.ParseBool(c.Query("critical")); critical {
		t, err = h.svc.CriticalNodes(ctx)
	} else {
		t, err = h.svc.Tree(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, t)
	case "outline":
		c.String(http.StatusOK, t.Outline())
	case "typed":
		c.JSON(http.StatusOK, t.Outputs())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, outline or typed"})
	}
}

// CreateNode gets or creates the addressed node and its missing ancestors
func (h *NodeHandler) CreateNode(c *gin.Context) {
	var req models.NodeCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nodes, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewOutputs(nodes))
}

// GetNode returns the node at ?path=&title=
func (h *NodeHandler) GetNode(c *gin.Context) {
	var req models.NodeRead
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.svc.Read(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOutput(n))
}

func (h *NodeHandler) GetNodeByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	n, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOutput(n))
}

// GetLineage returns the node at ?path=&title= followed by its ancestors
func (h *NodeHandler) GetLineage(c *gin.Context) {
	var req models.NodeRead
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chain, err := h.svc.Lineage(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOutputs(chain))
}

// UpdateNode renames, moves or edits a node
func (h *NodeHandler) UpdateNode(c *gin.Context) {
	var req models.NodeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.svc.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOutput(n))
}

func (h *NodeHandler) Promote(c *gin.Context) {
	h.readAndApply(c, h.svc.Promote)
}

func (h *NodeHandler) ToggleComplete(c *gin.Context) {
	h.readAndApply(c, h.svc.ToggleComplete)
}

func (h *NodeHandler) ToggleCritical(c *gin.Context) {
	h.readAndApply(c, h.svc.ToggleCritical)
}

// readAndApply binds a NodeRead body and runs a single-node operation on it.
func (h *NodeHandler) readAndApply(c *gin.Context, op func(context.Context, models.NodeRead) (*models.Node, error)) {
	var req models.NodeRead
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := op(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOutput(n))
}

// DeleteNode deletes the node at ?path=&title= with its subtree
func (h *NodeHandler) DeleteNode(c *gin.Context) {
	var req models.NodeDelete
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.delete(c, req)
}

func (h *NodeHandler) DeleteNodeByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.delete(c, models.NodeDelete{ID: &id})
}

func (h *NodeHandler) delete(c *gin.Context, req models.NodeDelete) {
	count, err := h.svc.Delete(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return uuid.UUID{}, false
	}
	return id, true
}
