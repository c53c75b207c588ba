// Package handler exposes the domain lookup endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ensgraph/internal/ens/avatar"
	"ensgraph/internal/ens/cache"
	"ensgraph/internal/ens/models"
	"ensgraph/internal/ens/names"
	"ensgraph/internal/ens/service"
	dErrors "ensgraph/pkg/domain-errors"
	"ensgraph/pkg/platform/audit"
	"ensgraph/pkg/platform/httputil"
	"ensgraph/pkg/requestcontext"
)

// Service defines the aggregation operations the handler depends on.
type Service interface {
	GetDomainDetails(ctx context.Context, name string) (*models.DomainDetails, error)
}

// AvatarResolver walks the avatar fallback chain for a record value.
type AvatarResolver interface {
	Resolve(ctx context.Context, name, value string) avatar.Resolution
}

// Publisher emits audit events without blocking the request path.
type Publisher interface {
	Emit(event audit.Event)
}

// Handler wires domain lookup endpoints to the aggregator.
type Handler struct {
	service Service
	cache   *cache.Cache
	avatars AvatarResolver
	audit   Publisher
	logger  *slog.Logger
}

// New constructs a domain handler with its dependencies. Cache, avatar
// resolver, and audit publisher may each be nil.
func New(svc Service, c *cache.Cache, avatars AvatarResolver, publisher Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		cache:   c,
		avatars: avatars,
		audit:   publisher,
		logger:  logger,
	}
}

// Register mounts domain endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/domains/{name}", h.HandleGetDomain)
	r.Get("/domains/{name}/profile", h.HandleGetProfile)
	r.Get("/domains/{name}/avatar", h.HandleGetAvatar)
}

// HandleGetDomain handles GET /api/domains/{name} requests.
func (h *Handler) HandleGetDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	details, err := h.lookup(ctx, chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "domain lookup served",
		"request_id", requestcontext.RequestID(ctx),
		"name", details.NormalizedName,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, details)
}

// HandleGetProfile handles GET /api/domains/{name}/profile requests.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	details, err := h.lookup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, service.ExtractProfile(details))
}

// HandleGetAvatar handles GET /api/domains/{name}/avatar requests.
func (h *Handler) HandleGetAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	details, err := h.lookup(ctx, chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if h.avatars == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "avatar resolution not configured"))
		return
	}

	res := h.avatars.Resolve(ctx, details.NormalizedName, details.Texts["avatar"])
	httputil.WriteJSON(w, http.StatusOK, res)
}

// lookup serves a name from cache when possible, falling back to a full
// aggregation and populating the cache on the way out.
func (h *Handler) lookup(ctx context.Context, raw string) (*models.DomainDetails, error) {
	normalized, err := names.Normalize(raw)
	if err != nil {
		h.emit(ctx, raw, err)
		return nil, dErrors.New(dErrors.CodeInvalidName, err.Error())
	}

	if cached := h.cache.Get(ctx, normalized); cached != nil {
		h.emit(ctx, normalized, nil)
		return cached, nil
	}

	details, err := h.service.GetDomainDetails(ctx, raw)
	h.emit(ctx, normalized, err)
	if err != nil {
		return nil, err
	}

	h.cache.Set(ctx, normalized, details)
	return details, nil
}

func (h *Handler) emit(ctx context.Context, subject string, err error) {
	if h.audit == nil {
		return
	}
	event := audit.Event{
		Action:    audit.ActionDomainLookup,
		Subject:   subject,
		RequestID: requestcontext.RequestID(ctx),
		Outcome:   "ok",
	}
	if err != nil {
		event.Outcome = "error"
		event.Detail = err.Error()
	}
	h.audit.Emit(event)
}
