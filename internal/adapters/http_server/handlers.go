// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"listings_portal/internal/app"
	"listings_portal/internal/domain"
)

type Handlers struct {
	Q *app.QueryService
	// Archive serves snapshot data; nil leaves the /v1/archive routes unmounted.
	Archive domain.ListingArchive
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type listingsPage struct {
	Items []domain.Listing `json:"items"`
	Count int              `json:"count"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/listings", h.listListings)
	s.mux.Get("/v1/listings/{id}", h.getListing)
	if h.Archive != nil {
		s.mux.Route("/v1/archive/listings", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/", h.listArchived)
			r.Get("/{id}", h.getArchived)
		})
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
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

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handlers) listListings(w http.ResponseWriter, r *http.Request) {
	f := domain.ListingFilter{
		Type:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
	}
	items := h.Q.ListListings(r.Context(), f)
	writeJSONWithETag(w, r, listingsPage{Items: items, Count: len(items)})
}

func (h *Handlers) getListing(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive integer")
		return
	}
	l := h.Q.GetListing(r.Context(), id)
	if l == nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "listing not found")
		return
	}
	writeJSONWithETag(w, r, l)
}

func (h *Handlers) listArchived(w http.ResponseWriter, r *http.Request) {
	limit := 500
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 1000 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 1000")
			return
		}
		limit = l
	}
	items, err := h.Archive.LatestListings(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("archive read failed")
		writeProblem(w, http.StatusServiceUnavailable, "Archive Unavailable", "")
		return
	}
	render.JSON(w, r, listingsPage{Items: items, Count: len(items)})
}

func (h *Handlers) getArchived(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive integer")
		return
	}
	l, err := h.Archive.GetListing(r.Context(), strconv.FormatInt(id, 10))
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "listing not archived")
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("archive read failed")
		writeProblem(w, http.StatusServiceUnavailable, "Archive Unavailable", "")
		return
	}
	render.JSON(w, r, l)
}
