package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-lifecycle/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func statusForKind(kind usecase.Kind) int {
	switch kind {
	case usecase.KindValidation, usecase.KindMissingJustification, usecase.KindMissingModifier:
		return http.StatusUnprocessableEntity
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindInvalidTransition, usecase.KindInvalidHistory,
		usecase.KindAlreadyResolved, usecase.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeResult renders a use-case Result, mapping the value on success.
func writeResult[T any](w http.ResponseWriter, res usecase.Result[T], okStatus int, render func(T) any) {
	if !res.OK {
		writeError(w, statusForKind(res.Kind), string(res.Kind), res.Error)
		return
	}
	writeJSON(w, okStatus, render(res.Value))
}

func urlID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

// queryInt reads an optional non-negative integer query parameter. Absent
// means zero.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
