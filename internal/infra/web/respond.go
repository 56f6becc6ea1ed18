package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gym-membership-backend/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// listResponse is the envelope for every paginated collection endpoint.
type listResponse struct {
	Data   interface{} `json:"data"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps domain sentinels onto HTTP statuses. Unknown errors are
// masked as a 500 so internals never leak to clients.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrRefundNotAllowed):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidArgument):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrInvalidState):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrPaymentVerificationFailed):
		status, msg = http.StatusPaymentRequired, err.Error()
	case errors.Is(err, domain.ErrGatewayUnavailable):
		status, msg = http.StatusBadGateway, err.Error()
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

// parsePage reads offset/limit query params with sane bounds.
func parsePage(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("missing body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
