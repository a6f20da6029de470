package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/addonhub/addonhub-backend/internal/aggregator"
	"github.com/addonhub/addonhub-backend/internal/github"
	"github.com/addonhub/addonhub-backend/internal/schema"
	"github.com/addonhub/addonhub-backend/internal/service"
)

// Handler manages HTTP request handlers
type Handler struct {
	repo   *service.RepositoryService
	logger *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(repo *service.RepositoryService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// SetupRoutes configures API routes
func SetupRoutes(router *mux.Router, h *Handler) {
	// Manifest routes
	router.HandleFunc("/addons.xml", h.GetManifest).Methods("GET")
	router.HandleFunc("/addons.xml.md5", h.GetManifestMD5).Methods("GET")

	// Entry listing + asset download redirects
	router.HandleFunc("/addons", h.ListAddons).Methods("GET")
	router.HandleFunc("/addons/{addonId}/{asset:.*}", h.GetAsset).Methods("GET", "HEAD")

	// Explicit reload (clears the store when ?clear=1) and cache invalidation
	router.HandleFunc("/reload", h.Reload).Methods("POST")
	router.HandleFunc("/invalidate", h.Invalidate).Methods("POST")

	// Health check
	router.HandleFunc("/healthz", h.Healthz).Methods("GET")
}

// GetManifest handles GET /addons.xml
func (h *Handler) GetManifest(w http.ResponseWriter, r *http.Request) {
	manifest, err := h.repo.Manifest(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(manifest)
}

// GetManifestMD5 handles GET /addons.xml.md5
func (h *Handler) GetManifestMD5(w http.ResponseWriter, r *http.Request) {
	digest, err := h.repo.Fingerprint(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(digest))
}

// ListAddons handles GET /addons
func (h *Handler) ListAddons(w http.ResponseWriter, r *http.Request) {
	addons := h.repo.Addons()
	respondJSON(w, http.StatusOK, map[string]any{"items": addons, "total": len(addons)})
}

// GetAsset handles GET /addons/{addonId}/{asset} by redirecting to the
// resolved download URL. Unknown add-ons and unresolvable assets are 404;
// upstream release-lookup failures are 502.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	addonID := vars["addonId"]
	asset := vars["asset"]
	if addonID == "" || asset == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "addonId and asset are required")
		return
	}

	url, err := h.repo.AssetURL(r.Context(), addonID, asset)
	if err != nil {
		if errors.Is(err, aggregator.ErrUnknownAddon) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "unknown addon "+addonID)
			return
		}
		var fetchErr *github.FetchError
		if errors.As(err, &fetchErr) {
			respondError(w, r, http.StatusBadGateway, ErrCodeUpstreamError, err.Error())
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Reload handles POST /reload. With ?clear=1 the store is emptied before
// sources are re-read (explicit full reload).
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	clear := r.URL.Query().Get("clear") == "1"
	if err := h.repo.Reload(r.Context(), clear); err != nil {
		var schemaErr *schema.Error
		if errors.As(err, &schemaErr) {
			respondError(w, r, http.StatusUnprocessableEntity, ErrCodeInvalidRequest, err.Error())
			return
		}
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstreamError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "addons": len(h.repo.Addons())})
}

// Invalidate handles POST /invalidate: drops manifest and release caches.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	h.repo.InvalidateCaches()
	respondJSON(w, http.StatusOK, map[string]any{"status": "invalidated"})
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
