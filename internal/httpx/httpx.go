// Package httpx writes the JSON envelope shared by every API response
// and translates errors into it.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/query"
	"go.uber.org/zap"
)

// Response is the envelope of every API response.
type Response struct {
	Success    bool              `json:"success"`
	Count      *int              `json:"count,omitempty"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
	Data       any               `json:"data,omitempty"`
	NoteLength *int              `json:"noteLength,omitempty"`
	Token      string            `json:"token,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Empty is serialized as {} where a response carries no data.
var Empty = struct{}{}

// OK returns a successful envelope carrying data.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Page returns a list envelope for one page of items, projected onto
// the fields selected by q.
func Page[T any](items []T, total int, q query.Query) (Response, error) {
	data, err := query.Project(items, q.Select)
	if err != nil {
		return Response{}, err
	}
	count := len(items)
	pagination := q.Paginate(total)
	return Response{Success: true, Count: &count, Pagination: &pagination, Data: data}, nil
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a failed envelope. Errors outside the apperr
// taxonomy are reported as "Server Error"; server errors are logged.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := "Server Error"

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status = appErr.Kind.Status()
		if appErr.Message != "" {
			message = appErr.Message
		}
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}
	WriteJSON(w, status, Response{Success: false, Error: message})
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid request body", Err: err}
	}
	return nil
}
