package models

import "time"

// ColorPaletteSize is the number of entries in the client's cursor
// color palette. ActiveUser.Color is an ordinal into it.
const ColorPaletteSize = 8

// Room represents one collaborative mind-map session.
type Room struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Method        string                 `json:"method"`
	CreatedBy     string                 `json:"createdBy"`
	CreatedByName string                 `json:"createdByName"`
	Snapshot      Snapshot               `json:"snapshot"`
	UserBranches  map[string]*UserBranch `json:"userBranches"`
	ActiveUsers   []ActiveUser           `json:"activeUsers"`
	Operations    []Operation            `json:"operations"`
	LastUpdated   int64                  `json:"lastUpdated"`
}

// UserBranch is a single user's private fork of the shared document.
type UserBranch struct {
	Snapshot    Snapshot `json:"snapshot"`
	LastUpdated int64    `json:"lastUpdated"`
	UserName    string   `json:"userName"`
}

// ActiveUser is a presence entry, ordered by join time within a room.
type ActiveUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Region   string `json:"region"`
	JoinedAt string `json:"joinedAt"`
	IsHost   bool   `json:"isHost"`
}

// HasActiveUser reports whether userID is present in ActiveUsers.
func (r *Room) HasActiveUser(userID string) bool {
	for _, u := range r.ActiveUsers {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// RemoveActiveUser removes userID from ActiveUsers, preserving join
// order of the remaining entries. Returns true if an entry was removed.
func (r *Room) RemoveActiveUser(userID string) bool {
	for i, u := range r.ActiveUsers {
		if u.ID == userID {
			r.ActiveUsers = append(r.ActiveUsers[:i], r.ActiveUsers[i+1:]...)
			return true
		}
	}
	return false
}

// LastUpdatedTime returns LastUpdated as time.Time.
func (r *Room) LastUpdatedTime() time.Time {
	return time.UnixMilli(r.LastUpdated)
}

// Info returns the room's public metadata.
func (r *Room) Info() RoomInfo {
	return RoomInfo{
		ID:            r.ID,
		Name:          r.Name,
		Method:        r.Method,
		CreatedBy:     r.CreatedBy,
		CreatedByName: r.CreatedByName,
		LastUpdated:   r.LastUpdated,
		UserCount:     len(r.ActiveUsers),
	}
}

// BranchSummaries returns a lightweight summary per branch, excluding
// the user named by excludeUserID (pass "" to include everyone).
func (r *Room) BranchSummaries(excludeUserID string) map[string]BranchSummary {
	summaries := make(map[string]BranchSummary, len(r.UserBranches))
	for userID, branch := range r.UserBranches {
		if userID == excludeUserID {
			continue
		}
		summaries[userID] = BranchSummary{
			UserName:    branch.UserName,
			LastUpdated: branch.LastUpdated,
			NodeCount:   branch.Snapshot.NodeCount(),
		}
	}
	return summaries
}

// RoomInfo is the public metadata view of a room.
type RoomInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Method        string `json:"method"`
	CreatedBy     string `json:"createdBy"`
	CreatedByName string `json:"createdByName"`
	LastUpdated   int64  `json:"lastUpdated"`
	UserCount     int    `json:"userCount"`
}

// BranchSummary is the lightweight per-branch view returned by polls.
// NodeCount comes from the snapshot's top-level node collection and is
// for display only.
type BranchSummary struct {
	UserName    string `json:"userName"`
	LastUpdated int64  `json:"lastUpdated"`
	NodeCount   int    `json:"nodeCount"`
}
