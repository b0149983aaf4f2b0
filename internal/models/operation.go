package models

import "encoding/json"

// Operation is an immutable log record of one client edit. The engine
// assigns ID, UserID and Timestamp; every other field the client sent
// passes through opaquely in Payload.
type Operation struct {
	ID        string
	UserID    string
	Timestamp int64
	Payload   map[string]json.RawMessage
}

// reserved operation fields owned by the engine, not the client.
const (
	opFieldID        = "id"
	opFieldUserID    = "userId"
	opFieldTimestamp = "timestamp"
)

// MarshalJSON flattens the payload fields to the top level, with the
// engine-assigned fields winning on key collision.
func (o Operation) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(o.Payload)+3)
	for k, v := range o.Payload {
		flat[k] = v
	}
	flat[opFieldID] = o.ID
	flat[opFieldUserID] = o.UserID
	flat[opFieldTimestamp] = o.Timestamp
	return json.Marshal(flat)
}

// UnmarshalJSON splits the engine-assigned fields back out of the
// flattened form and keeps the rest as payload.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if raw, ok := flat[opFieldID]; ok {
		if err := json.Unmarshal(raw, &o.ID); err != nil {
			return err
		}
		delete(flat, opFieldID)
	}
	if raw, ok := flat[opFieldUserID]; ok {
		if err := json.Unmarshal(raw, &o.UserID); err != nil {
			return err
		}
		delete(flat, opFieldUserID)
	}
	if raw, ok := flat[opFieldTimestamp]; ok {
		if err := json.Unmarshal(raw, &o.Timestamp); err != nil {
			return err
		}
		delete(flat, opFieldTimestamp)
	}
	if len(flat) > 0 {
		o.Payload = flat
	} else {
		o.Payload = nil
	}
	return nil
}

// PayloadFromRaw decodes a client-supplied operation body into payload
// fields, stripping any engine-owned keys the client tried to set.
func PayloadFromRaw(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	delete(payload, opFieldID)
	delete(payload, opFieldUserID)
	delete(payload, opFieldTimestamp)
	return payload, nil
}
