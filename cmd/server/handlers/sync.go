// Package handlers provides the HTTP adapter over the room
// synchronization engine.
package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/weichu2002/co-mindforest2/internal/errors"
	"github.com/weichu2002/co-mindforest2/internal/logging"
	"github.com/weichu2002/co-mindforest2/internal/models"
	"github.com/weichu2002/co-mindforest2/internal/room"
)

// SyncHandler decodes action envelopes and dispatches them to the
// synchronizer.
type SyncHandler struct {
	sync *room.Synchronizer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(sync *room.Synchronizer) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// syncRequest is the action envelope clients POST on every call.
type syncRequest struct {
	Action    string          `json:"action"`
	RoomID    string          `json:"roomId"`
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName"`
	UserData  json.RawMessage `json:"userData"`
	RoomData  *room.RoomData  `json:"roomData"`
	Snapshot  models.Snapshot `json:"snapshot"`
	Operation json.RawMessage `json:"operation"`
	LastSync  int64           `json:"lastSync"`
}

// apiResponse is the uniform response envelope.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HandleSync handles POST /api/sync.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrInvalidPayload, "invalid request body", err))
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "create_room":
		result, err := h.sync.CreateRoom(ctx, room.CreateRoomRequest{
			RoomID:   req.RoomID,
			RoomData: req.RoomData,
			UserID:   req.UserID,
			UserName: req.UserName,
			UserData: req.UserData,
			Snapshot: req.Snapshot,
		})
		writeOutcome(w, result, err)

	case "join_room":
		result, err := h.sync.JoinRoom(ctx, room.JoinRoomRequest{
			RoomID:   req.RoomID,
			UserID:   req.UserID,
			UserName: req.UserName,
			UserData: req.UserData,
		})
		writeOutcome(w, result, err)

	case "leave_room":
		// Leave never reports failure so clients can always clean up.
		h.sync.LeaveRoom(ctx, req.RoomID, req.UserID)
		writeJSON(w, http.StatusOK, apiResponse{Success: true})

	case "update_branch":
		result, err := h.sync.UpdateBranch(ctx, room.UpdateBranchRequest{
			RoomID:    req.RoomID,
			UserID:    req.UserID,
			Snapshot:  req.Snapshot,
			Operation: req.Operation,
		})
		writeOutcome(w, result, err)

	case "send_operation":
		result, err := h.sync.SendOperation(ctx, room.UpdateBranchRequest{
			RoomID:    req.RoomID,
			UserID:    req.UserID,
			Snapshot:  req.Snapshot,
			Operation: req.Operation,
		})
		writeOutcome(w, result, err)

	case "get_updates":
		result, err := h.sync.GetUpdates(ctx, req.RoomID, req.UserID, req.LastSync)
		writeOutcome(w, result, err)

	case "get_room_info":
		result, err := h.sync.GetRoomInfo(ctx, req.RoomID)
		writeOutcome(w, result, err)

	default:
		writeError(w, apperrors.Newf(apperrors.ErrInvalidPayload, "unknown action %q", req.Action))
	}
}

// writeOutcome writes either the result or the error envelope.
func writeOutcome(w http.ResponseWriter, result interface{}, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: result})
}

// writeError maps an engine error to an HTTP status and envelope.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		logging.Error("sync request failed", err, map[string]interface{}{
			"code": string(code),
		})
	}
	writeJSON(w, status, apiResponse{
		Success: false,
		Code:    string(code),
		Error:   err.Error(),
	})
}

// statusForCode maps error codes to HTTP statuses.
func statusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrAlreadyExists:
		return http.StatusConflict
	case apperrors.ErrStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
