package realtime

import (
	"encoding/json"
	"fmt"
)

// Frame types carried in the "type" field of every frame.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameZoneUpdate  = "zone-update"
	FrameAdminUpdate = "admin-update"
)

// AdminAction is the action reported by an admin-update frame.
type AdminAction string

const (
	ActionCategoryRatesChanged AdminAction = "category-rates-changed"
	ActionZoneClosed           AdminAction = "zone-closed"
	ActionZoneOpened           AdminAction = "zone-opened"
	ActionVacationAdded        AdminAction = "vacation-added"
	ActionRushUpdated          AdminAction = "rush-updated"
)

// Valid reports whether a is one of the known admin actions.
func (a AdminAction) Valid() bool {
	switch a {
	case ActionCategoryRatesChanged, ActionZoneClosed, ActionZoneOpened,
		ActionVacationAdded, ActionRushUpdated:
		return true
	}
	return false
}

// TargetType is the kind of entity an admin action touched.
type TargetType string

const (
	TargetCategory TargetType = "category"
	TargetZone     TargetType = "zone"
	TargetVacation TargetType = "vacation"
	TargetRush     TargetType = "rush"
)

// Valid reports whether t is one of the known target types.
func (t TargetType) Valid() bool {
	switch t {
	case TargetCategory, TargetZone, TargetVacation, TargetRush:
		return true
	}
	return false
}

// Event is an inbound push event. The only implementations are ZoneUpdate
// and AdminUpdate.
type Event interface {
	Type() string
	isEvent()
}

// ZoneUpdate reports that occupancy or state changed for some zone.
// The payload is passed through untouched.
type ZoneUpdate struct {
	Payload json.RawMessage
}

func (ZoneUpdate) Type() string { return FrameZoneUpdate }
func (ZoneUpdate) isEvent()     {}

// AdminUpdate reports a configuration change made by an administrator.
type AdminUpdate struct {
	AdminID    string          `json:"adminId"`
	Action     AdminAction     `json:"action"`
	TargetType TargetType      `json:"targetType"`
	TargetID   string          `json:"targetId"`
	Details    json.RawMessage `json:"details,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

func (AdminUpdate) Type() string { return FrameAdminUpdate }
func (AdminUpdate) isEvent()     {}

// Command is an outbound subscribe/unsubscribe request as seen by a server.
type Command struct {
	Type  string
	Topic string
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type gatePayload struct {
	GateID string `json:"gateId"`
}

// DecodeEvent parses an inbound frame into a ZoneUpdate or AdminUpdate.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Type {
	case FrameZoneUpdate:
		return ZoneUpdate{Payload: env.Payload}, nil

	case FrameAdminUpdate:
		if len(env.Payload) == 0 {
			return nil, fmt.Errorf("%w: admin-update without payload", ErrMalformedFrame)
		}
		var au AdminUpdate
		if err := json.Unmarshal(env.Payload, &au); err != nil {
			return nil, fmt.Errorf("%w: admin-update payload: %v", ErrMalformedFrame, err)
		}
		if !au.Action.Valid() || !au.TargetType.Valid() {
			return nil, fmt.Errorf("%w: action=%q targetType=%q", ErrUnknownAdminEvent, au.Action, au.TargetType)
		}
		return au, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}
}

// EncodeEvent builds the inbound wire frame for ev.
func EncodeEvent(ev Event) ([]byte, error) {
	var payload []byte
	var err error

	switch e := ev.(type) {
	case ZoneUpdate:
		payload = e.Payload
	case AdminUpdate:
		payload, err = json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal admin update: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEventType, ev)
	}

	return json.Marshal(envelope{Type: ev.Type(), Payload: payload})
}

// DecodeCommand parses an outbound subscribe/unsubscribe frame.
func DecodeCommand(data []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type != FrameSubscribe && env.Type != FrameUnsubscribe {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
	}

	var p gatePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return Command{}, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
	}
	if p.GateID == "" {
		return Command{}, fmt.Errorf("%w: %s without gateId", ErrMalformedFrame, env.Type)
	}
	return Command{Type: env.Type, Topic: p.GateID}, nil
}

func buildSubscribeFrame(topic string) []byte {
	return buildGateFrame(FrameSubscribe, topic)
}

func buildUnsubscribeFrame(topic string) []byte {
	return buildGateFrame(FrameUnsubscribe, topic)
}

func buildGateFrame(frameType, topic string) []byte {
	payload, _ := json.Marshal(gatePayload{GateID: topic})
	data, _ := json.Marshal(envelope{Type: frameType, Payload: payload})
	return data
}
