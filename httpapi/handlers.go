package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/poiesic/sommelier/core"
)

const maxFeedbackBody = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

type feedbackRequest struct {
	UserID   string          `json:"userId" validate:"required"`
	WineID   core.FlexString `json:"wineId" validate:"required"`
	Feedback string          `json:"feedback" validate:"required,oneof=like dislike"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) searchWines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := s.searcher.Search(r.Context(), q.Get("lang"), q.Get("q"))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Debug("search abandoned by client", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Request cancelled"})
			return
		}
		s.serverError(w, "search failed", err)
		return
	}
	if results == nil {
		results = []core.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) listFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("type") == "agg" {
		rows, err := s.feedback.AggregateList(r.Context())
		if err != nil {
			s.serverError(w, "feedback aggregation failed", err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit"})
			return
		}
		limit = n
	}
	records, err := s.feedback.ListFeedback(r.Context(), limit)
	if err != nil {
		s.serverError(w, "feedback listing failed", err)
		return
	}
	if records == nil {
		records = []*core.Feedback{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) addFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedbackBody)).Decode(&req); err != nil {
		s.invalidPayload(w, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.invalidPayload(w, err)
		return
	}

	fb := &core.Feedback{
		UserId: req.UserID,
		WineId: string(req.WineID),
		Kind:   core.FeedbackKind(req.Feedback),
	}
	if _, err := s.feedback.AddFeedback(r.Context(), fb); err != nil {
		if errors.Is(err, core.ErrInvalidFeedback) {
			s.invalidPayload(w, err)
			return
		}
		s.serverError(w, "feedback insert failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) invalidPayload(w http.ResponseWriter, err error) {
	s.logger.Debug("rejected feedback payload", "err", err)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid payload"})
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "err", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Server error"})
}

// writeJSON sends v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
