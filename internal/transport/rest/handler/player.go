package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xypp3/leetcode-battleroyal/internal/service"
	"github.com/xypp3/leetcode-battleroyal/internal/transport/rest/middleware"
)

// PlayerHandler handles submission and countdown endpoints
type PlayerHandler struct {
	matchSvc *service.MatchService
	judge    service.Judge // nil when no judge service is configured
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(matchSvc *service.MatchService, judge service.Judge) *PlayerHandler {
	return &PlayerHandler{
		matchSvc: matchSvc,
		judge:    judge,
	}
}

// SubmitRequest is the request body for a code submission. TestsPassed is
// the client-reported result, used only when no judge is configured.
type SubmitRequest struct {
	Code        string `json:"code"`
	TestsPassed int    `json:"testsPassed"`
}

// Submit handles POST /v1/submissions
func (h *PlayerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.GetPlayerID(r.Context())

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	testsPassed := req.TestsPassed
	if h.judge != nil {
		question, err := h.matchSvc.CurrentQuestion(r.Context(), playerID)
		if err != nil && !errors.Is(err, service.ErrQuestionNotFound) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if question != nil {
			testsPassed, err = h.judge.Run(r.Context(), question, req.Code)
			if err != nil {
				writeError(w, http.StatusBadGateway, "judge unavailable")
				return
			}
		}
	}

	if err := h.matchSvc.Submit(r.Context(), playerID, req.Code, testsPassed); err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) || errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accepted":    true,
		"testsPassed": testsPassed,
	})
}

// TimeRequest is the request body for the periodic countdown report
type TimeRequest struct {
	TimeRemaining int `json:"timeRemaining"`
}

// ReportTime handles POST /v1/time
func (h *PlayerHandler) ReportTime(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.GetPlayerID(r.Context())

	var req TimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.matchSvc.ReportTime(r.Context(), playerID, req.TimeRemaining); err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, "player not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CurrentQuestion handles GET /v1/question/current
func (h *PlayerHandler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.GetPlayerID(r.Context())

	question, err := h.matchSvc.CurrentQuestion(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) || errors.Is(err, service.ErrQuestionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, question)
}
