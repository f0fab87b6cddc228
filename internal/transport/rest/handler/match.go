package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xypp3/leetcode-battleroyal/internal/service"
	"github.com/xypp3/leetcode-battleroyal/internal/transport/rest/middleware"
)

// MatchHandler handles matchmaking and room projection endpoints
type MatchHandler struct {
	matchmakerSvc *service.MatchmakerService
	matchSvc      *service.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchmakerSvc *service.MatchmakerService, matchSvc *service.MatchService) *MatchHandler {
	return &MatchHandler{
		matchmakerSvc: matchmakerSvc,
		matchSvc:      matchSvc,
	}
}

// JoinRequest is the request body for joining a match
type JoinRequest struct {
	Name string `json:"name"`
}

// Join handles POST /v1/match/join
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	resp, err := h.matchmakerSvc.Join(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// State handles GET /v1/rooms/{roomId}/state
func (h *MatchHandler) State(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if roomID != middleware.GetRoomID(r.Context()) {
		writeError(w, http.StatusForbidden, "token not valid for this room")
		return
	}

	state, err := h.matchSvc.RoomState(r.Context(), roomID, middleware.GetPlayerID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Winner handles GET /v1/rooms/{roomId}/winner
func (h *MatchHandler) Winner(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if roomID != middleware.GetRoomID(r.Context()) {
		writeError(w, http.StatusForbidden, "token not valid for this room")
		return
	}

	status, err := h.matchSvc.WinnerStatus(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Attacks handles GET /v1/rooms/{roomId}/attacks
func (h *MatchHandler) Attacks(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if roomID != middleware.GetRoomID(r.Context()) {
		writeError(w, http.StatusForbidden, "token not valid for this room")
		return
	}

	attacks, err := h.matchSvc.RecentAttacks(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"attacks": attacks})
}
