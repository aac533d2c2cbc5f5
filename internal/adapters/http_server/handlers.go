package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"peer_review/internal/app"
	"peer_review/internal/domain"
)

const maxBodyBytes = 64 << 10

type Handlers struct {
	Survey *app.SurveyService
	Admin  *app.AdminService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type employeeView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Display string `json:"display"`
}

type submitResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Message      string `json:"message"`
}

type listResponse[T any] struct {
	Items   []T    `json:"items"`
	Message string `json:"message,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	// Peer Review Form
	s.mux.Group(func(r chi.Router) {
		r.Use(Session(s.opts.SecureCookies))
		r.Get("/v1/survey", h.startSurvey)
		r.Get("/v1/employees", h.searchEmployees)
		r.Post("/v1/reviews", h.submitReview)
	})

	// Admin Portal
	s.mux.Route("/v1/admin", func(r chi.Router) {
		r.Use(BasicAuth(h.Admin))
		r.Get("/reviews", h.adminReviews)
		r.Get("/summary", h.adminSummary)
		r.Get("/employees", h.adminEmployees)
		r.Get("/export", h.adminExport)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto problem responses. Every
// error ends the current interaction; nothing is retried.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid Review", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrThrottleExceeded):
		writeProblem(w, http.StatusTooManyRequests, "Submission Limit Reached", err.Error())
	case errors.Is(err, domain.ErrAuth):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	default:
		log.Error().Err(err).Str("route", routePattern(r)).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Review Store Error", "the review store is unavailable; nothing was saved")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeCached writes v with a weak ETag and honours If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "could not encode response")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cached body")
	}
}

// ---- Peer Review Form ----

func (h *Handlers) startSurvey(w http.ResponseWriter, r *http.Request) {
	st, err := h.Survey.Start(r.Context(), SessionID(r.Context()))
	if errors.Is(err, domain.ErrThrottleExceeded) {
		writeProblem(w, http.StatusTooManyRequests, "Submission Limit Reached",
			fmt.Sprintf("session %s has already submitted %d of %d reviews", st.Token, st.Submitted, st.Cap))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, st)
}

func (h *Handlers) searchEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.Survey.SearchEmployees(r.URL.Query().Get("q"))
	if errors.Is(err, domain.ErrValidation) {
		writeProblem(w, http.StatusNotFound, "Not Found", "No employees found for this search.")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]employeeView, 0, len(emps))
	for _, e := range emps {
		out = append(out, employeeView{ID: e.ID, Name: e.Name, Display: e.Display()})
	}
	writeCached(w, r, listResponse[employeeView]{Items: out})
}

func (h *Handlers) submitReview(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	rec, err := h.Survey.Submit(r.Context(), SessionID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("review_id", rec.ID).Msg("review submitted")
	writeJSON(w, http.StatusCreated, submitResponse{
		ID:           rec.ID,
		EmployeeID:   rec.EmployeeID,
		EmployeeName: rec.EmployeeName,
		Message:      fmt.Sprintf("Thank you! Your anonymous review for %s has been submitted.", rec.EmployeeName),
	})
}

// ---- Admin Portal ----

func employeeFilter(r *http.Request) []string { return r.URL.Query()["employee"] }

func emptyMessage(filter []string) string {
	if len(filter) > 0 {
		return "No reviews match this filter."
	}
	return "No reviews submitted yet."
}

func (h *Handlers) adminReviews(w http.ResponseWriter, r *http.Request) {
	filter := employeeFilter(r)
	rows, err := h.Admin.Reviews(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := listResponse[domain.ReviewRow]{Items: rows}
	if len(rows) == 0 {
		resp.Items = []domain.ReviewRow{}
		resp.Message = emptyMessage(filter)
	}
	writeCached(w, r, resp)
}

func (h *Handlers) adminSummary(w http.ResponseWriter, r *http.Request) {
	filter := employeeFilter(r)
	stats, err := h.Admin.Summary(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := listResponse[domain.EmployeeStats]{Items: stats}
	if len(stats) == 0 {
		resp.Items = []domain.EmployeeStats{}
		resp.Message = emptyMessage(filter)
	}
	writeCached(w, r, resp)
}

func (h *Handlers) adminEmployees(w http.ResponseWriter, r *http.Request) {
	names, err := h.Admin.EmployeeNames(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeCached(w, r, listResponse[string]{Items: names})
}

func (h *Handlers) adminExport(w http.ResponseWriter, r *http.Request) {
	payload, err := h.Admin.Export(r.Context(), employeeFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", app.ExportContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+app.ExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		log.Error().Err(err).Msg("failed to write export body")
	}
}
