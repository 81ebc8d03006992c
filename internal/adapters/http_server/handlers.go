package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_enrichment/internal/app"
	"review_enrichment/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	L *app.LookupService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/businesses/{yelp_id}", func(r chi.Router) {
		r.Get("/", h.getBusiness)
		r.Get("/reviews", h.listReviews)
		r.Post("/lookup", h.lookup)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var (
		ae *domain.AuthError
		ue *domain.UpstreamError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
	case errors.As(err, &ae):
		writeProblem(w, http.StatusBadGateway, "Directory Auth Failed", ae.Error())
	case errors.As(err, &ue):
		writeProblem(w, http.StatusBadGateway, "Upstream Error", ue.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
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
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCachedJSON writes v with a weak ETag and answers 304 when the client has it.
func writeCachedJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func yelpID(r *http.Request) string { return strings.TrimSpace(chi.URLParam(r, "yelp_id")) }

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.Q.GetBusiness(r.Context(), yelpID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCachedJSON(w, r, b)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id := yelpID(r)
	// 404 for an unknown business rather than an empty list
	if _, err := h.Q.GetBusiness(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Q.ListReviews(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []domain.Review{}
	}
	writeCachedJSON(w, r, out)
}

func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) {
	id := yelpID(r)
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "yelp_id is required")
		return
	}
	res, err := h.L.Lookup(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Error().Err(err).Msg("failed to write lookup body")
	}
}
