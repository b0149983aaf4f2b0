package room

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/weichu2002/co-mindforest2/internal/errors"
	"github.com/weichu2002/co-mindforest2/internal/ident"
	"github.com/weichu2002/co-mindforest2/internal/logging"
	"github.com/weichu2002/co-mindforest2/internal/models"
)

const (
	// operationLogHighWater triggers truncation of the operation log.
	operationLogHighWater = 100

	// operationLogKeep is how many newest operations survive a trim.
	// Trimming is batched, so the log length saw-tooths between
	// operationLogKeep and operationLogHighWater.
	operationLogKeep = 50
)

// Config selects between the engine's documented policy variants.
type Config struct {
	// SharedSnapshot makes join reuse the host snapshot blob for the
	// joiner's branch instead of forking an independent copy. The
	// default (false) is copy-on-join: edits to one branch can never
	// leak into another through shared bytes.
	SharedSnapshot bool
}

// Synchronizer applies room state transitions over a Repository. It
// holds no per-session state; every call is an independent
// load-mutate-save cycle, and concurrent writers race last-writer-wins
// at the store.
type Synchronizer struct {
	repo *Repository
	ids  ident.Source
	now  func() time.Time
	cfg  Config
}

// NewSynchronizer creates a Synchronizer. A nil ids source selects the
// UUID-backed default.
func NewSynchronizer(repo *Repository, ids ident.Source, cfg Config) *Synchronizer {
	if ids == nil {
		ids = ident.NewUUIDSource()
	}
	return &Synchronizer{
		repo: repo,
		ids:  ids,
		now:  time.Now,
		cfg:  cfg,
	}
}

// SetClock overrides the engine clock. Test hook.
func (s *Synchronizer) SetClock(now func() time.Time) {
	s.now = now
}

// RoomData is caller-supplied descriptive metadata at creation.
type RoomData struct {
	Name   string `json:"name"`
	Method string `json:"method"`
}

// CreateRoomRequest carries the create_room payload.
type CreateRoomRequest struct {
	RoomID   string
	RoomData *RoomData
	UserID   string
	UserName string
	UserData json.RawMessage
	Snapshot models.Snapshot
}

// CreateRoomResult is the create_room response.
type CreateRoomResult struct {
	RoomID string `json:"roomId"`
}

// CreateRoom creates a room with the caller as host.
//
// Collision policy: creating an id that already exists fails with
// ALREADY_EXISTS rather than silently overwriting, so two concurrent
// creators cannot clobber each other.
func (s *Synchronizer) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResult, error) {
	switch {
	case req.RoomID == "":
		return nil, apperrors.New(apperrors.ErrMissingField, "roomId is required")
	case req.RoomData == nil:
		return nil, apperrors.New(apperrors.ErrMissingField, "roomData is required")
	case req.UserID == "":
		return nil, apperrors.New(apperrors.ErrMissingField, "userId is required")
	case req.Snapshot.IsZero():
		return nil, apperrors.New(apperrors.ErrMissingField, "snapshot is required")
	}

	_, err := s.repo.Load(ctx, req.RoomID)
	if err == nil {
		return nil, apperrors.Newf(apperrors.ErrAlreadyExists, "room %s already exists", req.RoomID)
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	userName := resolveUserName(req.UserName, req.UserID)
	room := &models.Room{
		ID:            req.RoomID,
		Name:          req.RoomData.Name,
		Method:        req.RoomData.Method,
		CreatedBy:     req.UserID,
		CreatedByName: userName,
		Snapshot:      req.Snapshot.Clone(),
		UserBranches: map[string]*models.UserBranch{
			req.UserID: {
				Snapshot:    req.Snapshot.Clone(),
				LastUpdated: now.UnixMilli(),
				UserName:    userName,
			},
		},
		ActiveUsers: []models.ActiveUser{{
			ID:       req.UserID,
			Name:     userName,
			Color:    0,
			Region:   regionFromUserData(req.UserData),
			JoinedAt: now.UTC().Format(time.RFC3339),
			IsHost:   true,
		}},
		Operations:  []models.Operation{},
		LastUpdated: now.UnixMilli(),
	}

	if err := s.repo.Save(ctx, room); err != nil {
		return nil, err
	}

	logging.Info("room created", map[string]interface{}{
		"roomId": req.RoomID,
		"userId": req.UserID,
	})
	return &CreateRoomResult{RoomID: req.RoomID}, nil
}

// JoinRoomRequest carries the join_room payload.
type JoinRoomRequest struct {
	RoomID   string
	UserID   string
	UserName string
	UserData json.RawMessage
}

// JoinRoomResult is the join_room response: the room's metadata, the
// host snapshot, and the joiner's branch.
type JoinRoomResult struct {
	Room     models.RoomInfo    `json:"room"`
	Snapshot models.Snapshot    `json:"snapshot"`
	Branch   *models.UserBranch `json:"branch"`
}

// JoinRoom adds a user to a room. Joining is idempotent on the active
// user list; the user's branch is always reset to the host snapshot.
func (s *Synchronizer) JoinRoom(ctx context.Context, req JoinRoomRequest) (*JoinRoomResult, error) {
	if req.RoomID == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "roomId is required")
	}
	if req.UserID == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "userId is required")
	}

	room, err := s.repo.Load(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	userName := resolveUserName(req.UserName, req.UserID)

	// Re-join keeps the existing presence entry and its joinedAt.
	if !room.HasActiveUser(req.UserID) {
		room.ActiveUsers = append(room.ActiveUsers, models.ActiveUser{
			ID:       req.UserID,
			Name:     userName,
			Color:    len(room.ActiveUsers) % models.ColorPaletteSize,
			Region:   regionFromUserData(req.UserData),
			JoinedAt: now.UTC().Format(time.RFC3339),
			IsHost:   false,
		})
	}

	branchSnapshot := room.Snapshot
	if !s.cfg.SharedSnapshot {
		branchSnapshot = room.Snapshot.Clone()
	}
	branch := &models.UserBranch{
		Snapshot:    branchSnapshot,
		LastUpdated: now.UnixMilli(),
		UserName:    userName,
	}
	if room.UserBranches == nil {
		room.UserBranches = make(map[string]*models.UserBranch)
	}
	room.UserBranches[req.UserID] = branch
	room.LastUpdated = now.UnixMilli()

	if err := s.repo.Save(ctx, room); err != nil {
		return nil, err
	}

	logging.Info("user joined room", map[string]interface{}{
		"roomId": req.RoomID,
		"userId": req.UserID,
	})
	return &JoinRoomResult{
		Room:     room.Info(),
		Snapshot: room.Snapshot,
		Branch:   branch,
	}, nil
}

// LeaveRoom removes a user from the active list and deletes the room
// when it empties. It never fails outward: an absent room, an unknown
// user, or a store error all resolve to done, so clients can always
// fire cleanup without handling errors.
func (s *Synchronizer) LeaveRoom(ctx context.Context, roomID, userID string) {
	if roomID == "" || userID == "" {
		return
	}

	room, err := s.repo.Load(ctx, roomID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			logging.Warn("leave: room load failed", map[string]interface{}{
				"roomId": roomID,
				"error":  err.Error(),
			})
		}
		return
	}

	if !room.RemoveActiveUser(userID) {
		return
	}

	if len(room.ActiveUsers) == 0 {
		if err := s.repo.Delete(ctx, roomID); err != nil {
			logging.Warn("leave: room delete failed", map[string]interface{}{
				"roomId": roomID,
				"error":  err.Error(),
			})
			return
		}
		logging.Info("room deleted, last user left", map[string]interface{}{
			"roomId": roomID,
		})
		return
	}

	// Branches are kept so a returning user finds their fork.
	room.LastUpdated = s.now().UnixMilli()
	if err := s.repo.Save(ctx, room); err != nil {
		logging.Warn("leave: room save failed", map[string]interface{}{
			"roomId": roomID,
			"error":  err.Error(),
		})
		return
	}

	logging.Info("user left room", map[string]interface{}{
		"roomId": roomID,
		"userId": userID,
	})
}

// UpdateBranchRequest carries the update_branch / send_operation payload.
type UpdateBranchRequest struct {
	RoomID    string
	UserID    string
	Snapshot  models.Snapshot
	Operation json.RawMessage
}

// UpdateBranchResult is the update_branch response.
type UpdateBranchResult struct {
	OperationID string `json:"operationId,omitempty"`
}

// UpdateBranch replaces the caller's branch snapshot wholesale
// (last-write-wins, no merge) and optionally logs an operation.
func (s *Synchronizer) UpdateBranch(ctx context.Context, req UpdateBranchRequest) (*UpdateBranchResult, error) {
	if req.Snapshot.IsZero() {
		return nil, apperrors.New(apperrors.ErrMissingField, "snapshot is required")
	}
	return s.applyBranchUpdate(ctx, req)
}

// SendOperation logs an operation without requiring a branch snapshot.
// A snapshot may still accompany the call, in which case the branch is
// updated as well.
func (s *Synchronizer) SendOperation(ctx context.Context, req UpdateBranchRequest) (*UpdateBranchResult, error) {
	if len(req.Operation) == 0 {
		return nil, apperrors.New(apperrors.ErrMissingField, "operation is required")
	}
	return s.applyBranchUpdate(ctx, req)
}

func (s *Synchronizer) applyBranchUpdate(ctx context.Context, req UpdateBranchRequest) (*UpdateBranchResult, error) {
	if req.RoomID == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "roomId is required")
	}
	if req.UserID == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "userId is required")
	}

	// Decode the operation before loading so validation failures never
	// leave a partially mutated room behind.
	var payload map[string]json.RawMessage
	if len(req.Operation) > 0 {
		var err error
		payload, err = models.PayloadFromRaw(req.Operation)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidPayload, "operation must be a JSON object", err)
		}
	}

	room, err := s.repo.Load(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	nowMillis := now.UnixMilli()

	if !req.Snapshot.IsZero() {
		branch := room.UserBranches[req.UserID]
		if branch == nil {
			branch = &models.UserBranch{UserName: resolveUserName("", req.UserID)}
			if room.UserBranches == nil {
				room.UserBranches = make(map[string]*models.UserBranch)
			}
			room.UserBranches[req.UserID] = branch
		}
		branch.Snapshot = req.Snapshot.Clone()
		branch.LastUpdated = nowMillis
	}

	result := &UpdateBranchResult{}
	if len(req.Operation) > 0 {
		// Server-assigned timestamps are monotonic non-decreasing even
		// if the wall clock steps backwards.
		ts := nowMillis
		if n := len(room.Operations); n > 0 && ts < room.Operations[n-1].Timestamp {
			ts = room.Operations[n-1].Timestamp
		}
		op := models.Operation{
			ID:        ident.OperationID(ts, s.ids),
			UserID:    req.UserID,
			Timestamp: ts,
			Payload:   payload,
		}
		room.Operations = append(room.Operations, op)
		if len(room.Operations) > operationLogHighWater {
			room.Operations = append([]models.Operation(nil),
				room.Operations[len(room.Operations)-operationLogKeep:]...)
		}
		result.OperationID = op.ID
	}

	room.LastUpdated = nowMillis
	if err := s.repo.Save(ctx, room); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdatesResult is the get_updates response. LastSync is server-stamped;
// the caller must use it, not its own clock, for the next poll.
type UpdatesResult struct {
	Operations  []models.Operation              `json:"operations"`
	ActiveUsers []models.ActiveUser             `json:"activeUsers"`
	Branches    map[string]models.BranchSummary `json:"branches"`
	LastSync    int64                           `json:"lastSync"`
}

// GetUpdates returns the operations another user logged after lastSync,
// current presence, and branch summaries for every other user. The
// caller never receives its own echoed operations.
func (s *Synchronizer) GetUpdates(ctx context.Context, roomID, userID string, lastSync int64) (*UpdatesResult, error) {
	if roomID == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "roomId is required")
	}
	if userID == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "userId is required")
	}

	room, err := s.repo.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}

	operations := make([]models.Operation, 0)
	for _, op := range room.Operations {
		if op.Timestamp > lastSync && op.UserID != userID {
			operations = append(operations, op)
		}
	}

	return &UpdatesResult{
		Operations:  operations,
		ActiveUsers: room.ActiveUsers,
		Branches:    room.BranchSummaries(userID),
		LastSync:    s.now().UnixMilli(),
	}, nil
}

// RoomInfoResult is the get_room_info response.
type RoomInfoResult struct {
	Room     models.RoomInfo                 `json:"room"`
	Branches map[string]models.BranchSummary `json:"branches"`
	Snapshot models.Snapshot                 `json:"snapshot"`
}

// GetRoomInfo returns room metadata, all branch summaries, and the host
// snapshot verbatim.
func (s *Synchronizer) GetRoomInfo(ctx context.Context, roomID string) (*RoomInfoResult, error) {
	if roomID == "" {
		return nil, apperrors.New(apperrors.ErrMissingField, "roomId is required")
	}

	room, err := s.repo.Load(ctx, roomID)
	if err != nil {
		return nil, err
	}

	return &RoomInfoResult{
		Room:     room.Info(),
		Branches: room.BranchSummaries(""),
		Snapshot: room.Snapshot,
	}, nil
}

// resolveUserName defaults a missing display name from the user id.
func resolveUserName(userName, userID string) string {
	if userName != "" {
		return userName
	}
	prefix := userID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return "User " + prefix
}

// regionFromUserData extracts the optional region hint from the opaque
// userData payload.
func regionFromUserData(userData json.RawMessage) string {
	if len(userData) == 0 {
		return ""
	}
	var data struct {
		Region string `json:"region"`
	}
	if err := json.Unmarshal(userData, &data); err != nil {
		return ""
	}
	return data.Region
}
