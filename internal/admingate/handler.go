package admingate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerd/ledgerd/internal/platform/httpx"
)

// Handler exposes the unlock endpoint.
type Handler struct {
	logger    *slog.Logger
	gate      *Gate
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, gate *Gate) *Handler {
	return &Handler{logger: logger, gate: gate, validator: validator.New()}
}

// MountRoutes registers the admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/admin/unlock", h.unlock)
}

type unlockRequest struct {
	Password string `json:"password" validate:"required"`
}

type unlockResponse struct {
	Token string `json:"token"`
}

func (h *Handler) unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	token, err := h.gate.Unlock(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			h.logger.Warn("admin unlock denied", slog.String("remote", r.RemoteAddr))
			httpx.Problem(w, http.StatusForbidden, "Access Denied", "incorrect password")
			return
		}
		h.logger.Error("admin unlock", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.logger.Info("admin unlocked", slog.String("remote", r.RemoteAddr))
	httpx.JSON(w, http.StatusOK, unlockResponse{Token: token})
}
