package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler answers 200 while the process runs.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler answers 200 unless a check is unhealthy.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := OverallStatus(agg.CheckAll(r.Context()))

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(statusCode(status))
		_, _ = w.Write([]byte(status.String()))
	}
}

// HealthResponse is the JSON response for the detailed health endpoint.
type HealthResponse struct {
	Status    Status                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Checks    map[string]CheckResponse `json:"checks,omitempty"`
}

// CheckResponse is the JSON response for a single health check.
type CheckResponse struct {
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func newCheckResponse(r Result) CheckResponse {
	resp := CheckResponse{
		Status:   r.Status,
		Message:  r.Message,
		Duration: r.Duration.String(),
		Details:  r.Details,
	}
	if r.Error != nil {
		resp.Error = r.Error.Error()
	}
	return resp
}

// DetailedHandler reports every check as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := agg.CheckAll(r.Context())
		status := OverallStatus(results)

		response := HealthResponse{
			Status:    status,
			Timestamp: agg.now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckResponse, len(results)),
		}
		for name, result := range results {
			response.Checks[name] = newCheckResponse(result)
		}

		writeJSON(w, statusCode(status), response)
	}
}

// SingleCheckHandler reports one named check as JSON.
func SingleCheckHandler(agg *Aggregator, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := agg.Check(r.Context(), name)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, statusCode(result.Status), newCheckResponse(result))
	}
}

// RegisterHandlers mounts /healthz, /readyz, /health and /health/{name}.
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /readyz", ReadinessHandler(agg))
	mux.HandleFunc("GET /health", DetailedHandler(agg))
	mux.HandleFunc("GET /health/{name}", func(w http.ResponseWriter, r *http.Request) {
		SingleCheckHandler(agg, r.PathValue("name"))(w, r)
	})
}

func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
