package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JackyZzZz/Jacky-PeterPortal/internal/utils"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Warnf("Writing JSON response: %v", err)
	}
}

func (s *Server) handleCurrentWeek(w http.ResponseWriter, r *http.Request) {
	week, err := s.Resolver.ResolveNow(r.Context())
	if err != nil {
		utils.Log.Errorf("Resolving current week: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unable to determine current week"})
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleQuarters(w http.ResponseWriter, r *http.Request) {
	yearParam, asICS := strings.CutSuffix(r.PathValue("year"), ".ics")
	year, err := strconv.Atoi(yearParam)
	if err != nil || year < 1900 || year > 9998 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid academic year"})
		return
	}

	m, err := s.Mappings.GetOrBuild(r.Context(), year)
	switch {
	case errors.Is(err, calendar.ErrNotPublished):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "calendar not published"})
		return
	case err != nil:
		utils.Log.Errorf("Loading quarter mapping for %d: %v", year, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "calendar unavailable"})
		return
	}

	if asICS {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		if _, err := w.Write([]byte(calendar.ICS(year, m, time.Now()))); err != nil {
			utils.Log.Warnf("Writing calendar feed for %d: %v", year, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, m)
}
