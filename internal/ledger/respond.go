package ledger

import (
	"errors"
	"net/http"

	"github.com/ledgerd/ledgerd/internal/platform/httpx"
)

// respondError maps engine errors to RFC7807 responses. The status category
// follows the error kind; the detail carries the wrapped message so clients
// can render their own text.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Funds", err.Error())
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Storage Failure", "")
	}
}
