// Package handler exposes the graph persistence endpoints. Resource scoping
// follows the client convention of passing userId explicitly rather than an
// authenticated session.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ensgraph/internal/graph/service"
	dErrors "ensgraph/pkg/domain-errors"
	"ensgraph/pkg/platform/audit"
	"ensgraph/pkg/platform/httputil"
	"ensgraph/pkg/requestcontext"
)

// Publisher emits audit events without blocking the request path.
type Publisher interface {
	Emit(event audit.Event)
}

// Handler wires graph endpoints to the graph service.
type Handler struct {
	service *service.Service
	audit   Publisher
	logger  *slog.Logger
}

// New constructs a graph handler. The audit publisher may be nil.
func New(svc *service.Service, publisher Publisher, logger *slog.Logger) *Handler {
	return &Handler{service: svc, audit: publisher, logger: logger}
}

// Register mounts graph endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users", h.HandleGetUser)
	r.Post("/users", h.HandleCreateUser)

	r.Get("/nodes", h.HandleListNodes)
	r.Post("/nodes", h.HandleUpsertNode)
	r.Delete("/nodes", h.HandleDeleteNode)

	r.Get("/connections", h.HandleListConnections)
	r.Post("/connections", h.HandleCreateConnection)
	r.Delete("/connections", h.HandleDeleteConnection)

	r.Get("/graph", h.HandleGetGraph)
}

// HandleGetUser handles GET /api/users requests: get-or-create by client UUID.
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := service.ParseUserID(r.URL.Query().Get("userId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.GetOrCreateUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleCreateUser handles POST /api/users requests.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CreateUser(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.emit(r.Context(), audit.ActionUserCreated, user.ID.String(), user.ID)
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// HandleListNodes handles GET /api/nodes requests.
func (h *Handler) HandleListNodes(w http.ResponseWriter, r *http.Request) {
	userID, err := service.ParseUserID(r.URL.Query().Get("userId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	nodes, err := h.service.ListNodes(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

type upsertNodeRequest struct {
	UserID    string  `json:"userId"`
	EnsName   string  `json:"ensName"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
}

// HandleUpsertNode handles POST /api/nodes requests. Placing a name the user
// already has moves the existing node and answers 200 instead of 201.
func (h *Handler) HandleUpsertNode(w http.ResponseWriter, r *http.Request) {
	var req upsertNodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := service.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	node, created, err := h.service.UpsertNode(r.Context(), userID, req.EnsName, req.PositionX, req.PositionY)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.emit(r.Context(), audit.ActionNodeCreated, node.ID.String(), userID)
	}
	httputil.WriteJSON(w, status, map[string]any{"node": node})
}

// HandleDeleteNode handles DELETE /api/nodes requests.
func (h *Handler) HandleDeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID, userID, err := scopedID(r, "nodeId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteNode(r.Context(), nodeID, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.emit(r.Context(), audit.ActionNodeDeleted, nodeID.String(), userID)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleListConnections handles GET /api/connections requests.
func (h *Handler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	userID, err := service.ParseUserID(r.URL.Query().Get("userId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	conns, err := h.service.ListConnections(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

type createConnectionRequest struct {
	UserID       string `json:"userId"`
	SourceNodeID string `json:"sourceNodeId"`
	TargetNodeID string `json:"targetNodeId"`
}

// HandleCreateConnection handles POST /api/connections requests.
func (h *Handler) HandleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := service.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sourceID, err := uuid.Parse(req.SourceNodeID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "userId, sourceNodeId, and targetNodeId are required"))
		return
	}
	targetID, err := uuid.Parse(req.TargetNodeID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "userId, sourceNodeId, and targetNodeId are required"))
		return
	}

	conn, err := h.service.CreateConnection(r.Context(), userID, sourceID, targetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.emit(r.Context(), audit.ActionConnectionAdded, conn.ID.String(), userID)
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"connection": conn})
}

// HandleDeleteConnection handles DELETE /api/connections requests.
func (h *Handler) HandleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	connID, userID, err := scopedID(r, "connectionId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteConnection(r.Context(), connID, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.emit(r.Context(), audit.ActionConnectionRemove, connID.String(), userID)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleGetGraph handles GET /api/graph requests.
func (h *Handler) HandleGetGraph(w http.ResponseWriter, r *http.Request) {
	userID, err := service.ParseUserID(r.URL.Query().Get("userId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	graph, err := h.service.GetGraph(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, graph)
}

// scopedID reads a resource ID plus the owning userId from query parameters.
func scopedID(r *http.Request, param string) (uuid.UUID, uuid.UUID, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return uuid.Nil, uuid.Nil, dErrors.New(dErrors.CodeBadRequest, param+" and userId parameters are required")
	}
	resourceID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+param+" UUID format")
	}
	userID, err := service.ParseUserID(r.URL.Query().Get("userId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return resourceID, userID, nil
}

func (h *Handler) emit(ctx context.Context, action audit.Action, subject string, userID uuid.UUID) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(audit.Event{
		Action:    action,
		Subject:   subject,
		UserID:    userID.String(),
		RequestID: requestcontext.RequestID(ctx),
		Outcome:   "ok",
	})
}
