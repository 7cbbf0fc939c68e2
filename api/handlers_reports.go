package api

import (
	"net/http"
	"time"

	"reportclaw/database"
	"reportclaw/digest"
)

// handleListReports returns stored reports, filterable by stock_code, year,
// and since (RFC3339 created_at floor).
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	one := 1
	limitCap := maxLimit
	limit := getIntParam(r, "limit", defaultLimit, &one, &limitCap)
	year := getIntParam(r, "year", 0, nil, nil)
	stockCode := r.URL.Query().Get("stock_code")

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid since parameter", err)
			return
		}
		since = parsed
	}

	reports, err := s.repo.ListReports(stockCode, year, since, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list reports", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(reports),
		"reports": reports,
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid report id", nil)
		return
	}

	report, err := s.repo.GetReportWithMDA(id)
	if err != nil {
		if database.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "report not found", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load report", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// handleGetReportMDA returns only the extracted sections of one report.
func (s *Server) handleGetReportMDA(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid report id", nil)
		return
	}

	if _, err := s.repo.GetReport(id); err != nil {
		if database.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "report not found", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load report", err)
		return
	}

	mda, err := s.ingest.GetMDAByReportID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load MDA", err)
		return
	}
	if mda == nil {
		respondWithError(w, http.StatusNotFound, "no MDA extracted for this report", nil)
		return
	}
	respondJSON(w, http.StatusOK, mda)
}

// handleRecentIngests returns reports whose MDA rows landed in the last
// ?hours (default 24, capped at a week), sections included.
func (s *Server) handleRecentIngests(w http.ResponseWriter, r *http.Request) {
	one := 1
	weekHours := 168
	hours := getIntParam(r, "hours", 24, &one, &weekHours)

	now := time.Now()
	entries, err := s.ingest.IngestedSince(now.Add(-time.Duration(hours)*time.Hour), now)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list recent ingests", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hours":   hours,
		"count":   len(entries),
		"reports": entries,
	})
}

// handleDeleteReport removes a report row. The MDA foreign key is
// restrictive, so a report with extracted sections cannot be deleted until
// its MDA rows are gone; that surfaces as a conflict.
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid report id", nil)
		return
	}

	if err := s.repo.DeleteReport(id); err != nil {
		if database.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "report not found", nil)
			return
		}
		if database.IsForeignKeyViolation(err) {
			respondWithError(w, http.StatusConflict, "report still has MDA rows", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to delete report", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.repo.CountsByYear()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"years": counts,
	})
}

// handleDigestPreview renders the pending digest without advancing the
// delivery watermark. With ?date=YYYY-MM-DD it renders all reports disclosed
// on that date; with ?today=1 the window floor is forced to today 00:00 even
// when a watermark exists.
func (s *Server) handleDigestPreview(w http.ResponseWriter, r *http.Request) {
	var body string
	var entries []digest.Entry
	var err error

	switch {
	case r.URL.Query().Get("date") != "":
		date, perr := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if perr != nil {
			respondWithError(w, http.StatusBadRequest, "invalid date parameter", perr)
			return
		}
		body, entries, err = s.digest.PreviewByDate(date)
	case r.URL.Query().Get("today") == "1" || r.URL.Query().Get("today") == "true":
		body, entries, err = s.digest.PreviewToday()
	default:
		body, entries, err = s.digest.Preview()
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to build digest preview", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(entries),
		"body":  body,
	})
}

func (s *Server) handleTriggerCrawl(w http.ResponseWriter, r *http.Request) {
	if s.crawler == nil {
		respondWithError(w, http.StatusServiceUnavailable, "crawler not running", nil)
		return
	}
	if !s.crawler.TriggerNow() {
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "already scheduled"})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.sqldb.Ping(); err != nil {
		status = "database unreachable"
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]string{"status": status})
}
