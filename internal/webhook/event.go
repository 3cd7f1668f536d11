package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindInviteeCreated  = "invitee.created"
	KindInviteeCanceled = "invitee.canceled"

	defaultInviteeName = "Client"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// Event is one of InviteeCreated, InviteeCanceled or Unrecognized.
type Event interface {
	Kind() string
	isEvent()
}

type InviteeCreated struct {
	URI           string
	Email         string
	Name          string
	EventTypeURI  string
	StartTime     time.Time
	CancelURL     string
	RescheduleURL string
}

type InviteeCanceled struct {
	URI string
}

// Unrecognized is any event kind this service does not act on.
type Unrecognized struct {
	Name string
}

func (InviteeCreated) Kind() string  { return KindInviteeCreated }
func (InviteeCanceled) Kind() string { return KindInviteeCanceled }
func (u Unrecognized) Kind() string  { return u.Name }

func (InviteeCreated) isEvent()  {}
func (InviteeCanceled) isEvent() {}
func (Unrecognized) isEvent()    {}

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type inviteePayload struct {
	URI            string `json:"uri"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	CancelURL      string `json:"cancel_url"`
	RescheduleURL  string `json:"reschedule_url"`
	ScheduledEvent struct {
		EventType string `json:"event_type"`
		StartTime string `json:"start_time"`
	} `json:"scheduled_event"`
}

// ParseEvent decodes a verified webhook body. Unknown kinds decode to
// Unrecognized without looking at the payload.
func ParseEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch env.Event {
	case KindInviteeCreated:
		p, err := decodePayload(env.Payload)
		if err != nil {
			return nil, err
		}
		return p.created()
	case KindInviteeCanceled:
		p, err := decodePayload(env.Payload)
		if err != nil {
			return nil, err
		}
		if p.URI == "" {
			return nil, fmt.Errorf("%w: payload.uri is required", ErrMalformedEvent)
		}
		return InviteeCanceled{URI: p.URI}, nil
	default:
		return Unrecognized{Name: env.Event}, nil
	}
}

func decodePayload(raw json.RawMessage) (inviteePayload, error) {
	var p inviteePayload
	if len(raw) == 0 || string(raw) == "null" {
		return p, fmt.Errorf("%w: payload is required", ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return p, nil
}

func (p inviteePayload) created() (InviteeCreated, error) {
	if p.URI == "" {
		return InviteeCreated{}, fmt.Errorf("%w: payload.uri is required", ErrMalformedEvent)
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return InviteeCreated{}, fmt.Errorf("%w: payload.email is required", ErrMalformedEvent)
	}
	if p.ScheduledEvent.EventType == "" {
		return InviteeCreated{}, fmt.Errorf("%w: payload.scheduled_event.event_type is required", ErrMalformedEvent)
	}
	start, err := time.Parse(time.RFC3339, p.ScheduledEvent.StartTime)
	if err != nil {
		return InviteeCreated{}, fmt.Errorf("%w: payload.scheduled_event.start_time: %v", ErrMalformedEvent, err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = defaultInviteeName
	}

	return InviteeCreated{
		URI:           p.URI,
		Email:         email,
		Name:          name,
		EventTypeURI:  p.ScheduledEvent.EventType,
		StartTime:     start.UTC(),
		CancelURL:     p.CancelURL,
		RescheduleURL: p.RescheduleURL,
	}, nil
}
