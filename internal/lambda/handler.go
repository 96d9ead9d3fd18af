package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ammiranda/td/handlers"
	"github.com/ammiranda/td/models"
	"github.com/ammiranda/td/service"
	"github.com/ammiranda/td/tree"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

const nodesPrefix = "/api/nodes/"

// Handler represents the Lambda handler with its dependencies
type Handler struct {
	svc    *service.NodeService
	logger *slog.Logger
}

// NewHandler creates a new Handler backed by svc
func NewHandler(svc *service.NodeService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Handle processes API Gateway events. Routes mirror the HTTP server's.
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := h.route(ctx, request)
	h.logger.Info("request",
		slog.String("method", request.HTTPMethod),
		slog.String("path", request.Path),
		slog.Int("status", resp.StatusCode))
	return resp, nil
}

func (h *Handler) route(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	method, path := request.HTTPMethod, strings.TrimSuffix(request.Path, "/")

	switch {
	case method == http.MethodGet && path == "/api/tree":
		return h.handleGetTree(ctx, request)
	case method == http.MethodGet && path == "/api/lineage":
		return h.handleLineage(ctx, request)
	case method == http.MethodPost && path == "/api/nodes":
		return h.handleCreateNode(ctx, request)
	case method == http.MethodGet && path == "/api/nodes":
		return h.handleGetNode(ctx, request)
	case method == http.MethodPatch && path == "/api/nodes":
		return h.handleUpdateNode(ctx, request)
	case method == http.MethodDelete && path == "/api/nodes":
		return h.handleDelete(ctx, models.NodeDelete{
			Title: request.QueryStringParameters["title"],
			Path:  request.QueryStringParameters["path"],
		})
	case method == http.MethodPost && path == "/api/nodes/promote":
		return h.handleAction(ctx, request, h.svc.Promote)
	case method == http.MethodPost && path == "/api/nodes/complete":
		return h.handleAction(ctx, request, h.svc.ToggleComplete)
	case method == http.MethodPost && path == "/api/nodes/critical":
		return h.handleAction(ctx, request, h.svc.ToggleCritical)
	case strings.HasPrefix(path, nodesPrefix) && (method == http.MethodGet || method == http.MethodDelete):
		return h.handleByID(ctx, method, strings.TrimPrefix(path, nodesPrefix))
	default:
		return jsonResponse(http.StatusNotFound, handlers.ErrorBody{Error: "Not found"})
	}
}

func (h *Handler) handleGetTree(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var (
		t   tree.Tree
		err error
	)
	if critical, _ := strconv.ParseBool(request.QueryStringParameters["critical"]); critical {
		t, err = h.svc.CriticalNodes(ctx)
	} else {
		t, err = h.svc.Tree(ctx)
	}
	if err != nil {
		return errorResponse(err)
	}

	switch format := request.QueryStringParameters["format"]; format {
	case "", "json":
		return jsonResponse(http.StatusOK, t)
	case "outline":
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
			Body:       t.Outline(),
		}
	case "typed":
		return jsonResponse(http.StatusOK, t.Outputs())
	default:
		return jsonResponse(http.StatusBadRequest, handlers.ErrorBody{Error: fmt.Sprintf("unknown format %q", format)})
	}
}

func (h *Handler) handleCreateNode(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var req models.NodeCreate
	if resp, ok := decodeBody(request, &req); !ok {
		return resp
	}
	nodes, err := h.svc.Create(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusCreated, models.NewOutputs(nodes))
}

func (h *Handler) handleGetNode(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	n, err := h.svc.Read(ctx, readFromQuery(request))
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, models.NewOutput(n))
}

func (h *Handler) handleLineage(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	chain, err := h.svc.Lineage(ctx, readFromQuery(request))
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, models.NewOutputs(chain))
}

func (h *Handler) handleUpdateNode(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var req models.NodeUpdate
	if resp, ok := decodeBody(request, &req); !ok {
		return resp
	}
	n, err := h.svc.Update(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, models.NewOutput(n))
}

func (h *Handler) handleAction(ctx context.Context, request events.APIGatewayProxyRequest, op func(context.Context, models.NodeRead) (*models.Node, error)) events.APIGatewayProxyResponse {
	var req models.NodeRead
	if resp, ok := decodeBody(request, &req); !ok {
		return resp
	}
	n, err := op(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, models.NewOutput(n))
}

func (h *Handler) handleByID(ctx context.Context, method, raw string) events.APIGatewayProxyResponse {
	id, err := uuid.Parse(raw)
	if err != nil {
		return jsonResponse(http.StatusBadRequest, handlers.ErrorBody{Error: "invalid node id"})
	}
	if method == http.MethodDelete {
		return h.handleDelete(ctx, models.NodeDelete{ID: &id})
	}
	n, err := h.svc.Get(ctx, id)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, models.NewOutput(n))
}

func (h *Handler) handleDelete(ctx context.Context, req models.NodeDelete) events.APIGatewayProxyResponse {
	count, err := h.svc.Delete(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	return jsonResponse(http.StatusOK, map[string]int{"deleted": count})
}

func readFromQuery(request events.APIGatewayProxyRequest) models.NodeRead {
	return models.NodeRead{
		Title: request.QueryStringParameters["title"],
		Path:  request.QueryStringParameters["path"],
	}
}

func decodeBody(request events.APIGatewayProxyRequest, v any) (events.APIGatewayProxyResponse, bool) {
	if err := json.Unmarshal([]byte(request.Body), v); err != nil {
		return jsonResponse(http.StatusBadRequest, handlers.ErrorBody{Error: fmt.Sprintf("Invalid request: %v", err)}), false
	}
	return events.APIGatewayProxyResponse{}, true
}

func errorResponse(err error) events.APIGatewayProxyResponse {
	return jsonResponse(handlers.StatusForError(err), handlers.NewErrorBody(err))
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       fmt.Sprintf(`{"error": "Failed to marshal response: %v"}`, err),
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
