package ledger

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ledgerd/ledgerd/internal/observability"
	"github.com/ledgerd/ledgerd/internal/platform/httpx"
)

// Handler wires the ledger endpoints. It maps each engine operation onto one
// request/response pair and carries no invariant logic of its own.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   *observability.Metrics
	admin     func(http.Handler) http.Handler
}

// NewHandler builds a Handler instance. admin guards the administrative
// routes; pass nil to leave them open (tests).
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		metrics:   metrics,
		admin:     admin,
	}
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/accounts", h.createAccount)
	r.Get("/accounts", h.searchAccounts)
	r.Get("/accounts/{id}", h.getAccount)
	r.Post("/accounts/{id}/deposit", h.deposit)
	r.Post("/accounts/{id}/withdraw", h.withdraw)
	r.Get("/accounts/{id}/transactions", h.listTransactions)
	r.Post("/transfers", h.transfer)

	r.Group(func(r chi.Router) {
		if h.admin != nil {
			r.Use(h.admin)
		}
		r.Delete("/accounts/{id}", h.deleteAccount)
	})
}

type createAccountRequest struct {
	Name           string          `json:"name" validate:"required"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Note   string          `json:"note"`
}

type transferRequest struct {
	FromID int64           `json:"from_id" validate:"required"`
	ToID   int64           `json:"to_id" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Note   string          `json:"note"`
}

type balanceResponse struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type transferResponse struct {
	FromID      int64           `json:"from_id"`
	ToID        int64           `json:"to_id"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	account, err := h.service.CreateAccount(r.Context(), req.Name, req.InitialBalance)
	h.metrics.ObserveOperation("create_account", err)
	if err != nil {
		h.logger.Warn("create account", slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.logger.Info("account created", slog.Int64("id", account.ID))
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	h.metrics.ObserveOperation("get_account", err)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) searchAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.SearchAccounts(r.Context(), r.URL.Query().Get("q"))
	h.metrics.ObserveOperation("search_accounts", err)
	if err != nil {
		respondError(w, err)
		return
	}
	if accounts == nil {
		accounts = []Account{}
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	err := h.service.DeleteAccount(r.Context(), id)
	h.metrics.ObserveOperation("delete_account", err)
	if err != nil {
		h.logger.Warn("delete account", slog.Int64("id", id), slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.logger.Info("account deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "deposit", h.service.Deposit)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "withdraw", h.service.Withdraw)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, op string, call func(context.Context, int64, decimal.Decimal, string) (decimal.Decimal, error)) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	balance, err := call(r.Context(), id, req.Amount, req.Note)
	h.metrics.ObserveOperation(op, err)
	if err != nil {
		h.logger.Warn(op, slog.Int64("id", id), slog.Any("error", err))
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balanceResponse{AccountID: id, Balance: balance})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
		return
	}
	fromBalance, toBalance, err := h.service.Transfer(r.Context(), req.FromID, req.ToID, req.Amount, req.Note)
	h.metrics.ObserveOperation("transfer", err)
	if err != nil {
		h.logger.Warn("transfer", slog.Int64("from", req.FromID), slog.Int64("to", req.ToID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transferResponse{
		FromID:      req.FromID,
		ToID:        req.ToID,
		FromBalance: fromBalance,
		ToBalance:   toBalance,
	})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r)
	if !ok {
		return
	}
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "limit must be an integer")
			return
		}
		limit = parsed
	}
	records, err := h.service.ListTransactions(r.Context(), id, limit)
	h.metrics.ObserveOperation("list_transactions", err)
	if err != nil {
		respondError(w, err)
		return
	}
	if records == nil {
		records = []TransactionRecord{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "account id must be an integer")
		return 0, false
	}
	return id, true
}
