package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/feed"
	"github.com/couchcryptid/sightings/internal/mapview"
	"github.com/couchcryptid/sightings/internal/media"
	"github.com/couchcryptid/sightings/internal/submission"
)

const (
	maxListLimit     = 100
	contactSentReply = "Your message has been sent successfully. We'll get back to you soon."
)

type listResponse struct {
	Status  string          `json:"status"`
	Reports []domain.Report `json:"reports"`
	Error   string          `json:"error,omitempty"`
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeReport(w, r, s.deps.Limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := s.submitContext(r)
	defer cancel()

	res, err := s.deps.Submitter.Submit(ctx, sub)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeValidation(w, verr)
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	rng, err := parseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	s.writeList(w, s.deps.Store.List(ctx, rng))
}

func (s *Server) handleRecentReports(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"), feed.DefaultLimit, maxListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	s.writeList(w, s.deps.Store.ListRecent(ctx, limit))
}

// writeList reports the tagged result as is. API callers pick their own
// fallback policy, so no sample data is substituted here.
func (s *Server) writeList(w http.ResponseWriter, res domain.ListResult) {
	s.deps.Metrics.ListResults.WithLabelValues("api", res.Status.String()).Inc()
	body := listResponse{Status: res.Status.String(), Reports: res.Reports}
	if res.Status == domain.ListUnavailable {
		s.logger.Warn("report listing failed", "error", res.Err)
		body.Error = feed.ErrorMessage
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, body)
}

func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Feed.Snapshot())
}

func (s *Server) handleFeedRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Feed.Refresh(ctx))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := mapview.ParseMode(q.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rng, err := parseDateRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	view, err := s.deps.Map.Build(ctx, rng, mode)
	switch {
	case errors.Is(err, mapview.ErrDisabled):
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":    err.Error(),
			"settings": s.deps.Map.Settings(),
		})
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		sharedobs.WriteJSON(w, http.StatusOK, view)
	}
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	lat, lon, verr := queryCoordinates(r.URL.Query())
	if verr != nil {
		writeValidation(w, verr)
		return
	}
	loc, err := s.deps.Submitter.Locate(r.Context(), lat, lon)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			writeValidation(w, vErr)
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, loc)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	loc, err := s.deps.Submitter.Resolve(r.Context(), r.URL.Query().Get("q"))
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr)
	case errors.Is(err, submission.ErrGeocodingDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, submission.ErrNoMatch):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		sharedobs.WriteJSON(w, http.StatusOK, loc)
	}
}

func (s *Server) handleValidateMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes(s.deps.Limits))
	form, err := readUpload(r, s.deps.Limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing := 0
	if v := form.Values.Get("existing"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid existing count")
			return
		}
		existing = n
	}

	sel := media.NewSelection(s.deps.Limits, existing)
	if err := form.stage(sel); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"count":     len(sel.Files()),
		"remaining": sel.Remaining(),
	})
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var msg domain.ContactMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	id, err := s.submitContact(r, msg)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeValidation(w, verr)
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, map[string]string{"id": id, "message": contactSentReply})
}

// submitContact validates and stores a contact message.
func (s *Server) submitContact(r *http.Request, msg domain.ContactMessage) (string, error) {
	msg = msg.Normalized()
	if err := msg.Validate(); err != nil {
		return "", err
	}

	ctx, cancel := s.storeContext(r)
	defer cancel()
	id, err := s.deps.Store.SubmitContact(ctx, msg)
	if err != nil {
		s.deps.Metrics.ContactMessages.WithLabelValues("error").Inc()
		s.logger.Error("contact submission failed", "error", err)
		return "", err
	}
	s.deps.Metrics.ContactMessages.WithLabelValues("success").Inc()
	s.logger.Info("contact message stored", "id", id)
	return id, nil
}
