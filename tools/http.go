package tools

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonwraymond/domquery/dom"
	"github.com/jonwraymond/domquery/query"
	"github.com/jonwraymond/domquery/resilience"
)

// MaxInputBytes caps the request body of a tool call.
const MaxInputBytes = 1 << 20

// ToolInfo describes a tool in the listing.
type ToolInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// ErrorResponse is the body of a failed call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterHandlers mounts GET /tools and POST /tools/{name} on mux.
func RegisterHandlers(mux *http.ServeMux, d *Dispatcher) {
	mux.Handle("GET /tools", ListHandler(d))
	mux.Handle("POST /tools/{name}", CallHandler(d))
}

// ListHandler lists the registered tools.
func ListHandler(d *Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		tools := d.Tools()
		infos := make([]ToolInfo, 0, len(tools))
		for _, t := range tools {
			infos = append(infos, ToolInfo{Name: t.Meta.Name, Description: t.Description, Tags: t.Meta.Tags})
		}
		writeJSON(w, http.StatusOK, infos)
	})
}

// CallHandler runs the tool named by the {name} path value with the request
// body as input.
func CallHandler(d *Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxInputBytes))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error()})
			return
		}

		out, err := d.Call(r.Context(), r.PathValue("name"), body)
		if err != nil {
			writeJSON(w, StatusCode(err), ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}

// StatusCode maps a call error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, query.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoDocument), errors.Is(err, dom.ErrDetached):
		return http.StatusConflict
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, resilience.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, query.ErrEvaluation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
