package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
)

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.Envelope{OK: true, Data: data})
}

// writeError classifies err and writes a failure envelope.
func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOf(kind))
	json.NewEncoder(w).Encode(dto.Envelope{
		OK:          false,
		ErrorKind:   string(kind),
		ErrorDetail: err.Error(),
	})
}

// writeBadRequest writes a validation failure for malformed input that
// never reached a use case.
func writeBadRequest(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(dto.Envelope{
		OK:          false,
		ErrorKind:   string(domain.KindValidation),
		ErrorDetail: detail,
	})
}

// statusOf maps an error kind to an HTTP status code.
func statusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInsufficientFunds, domain.KindInsufficientStock, domain.KindOverpayment:
		return http.StatusUnprocessableEntity
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindPartialFailure:
		// The caller must know the system needs reconciliation, not
		// retry blindly.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// pagination reads limit/offset with the default page size.
func pagination(r *http.Request) (limit, offset int) {
	return parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0)
}
