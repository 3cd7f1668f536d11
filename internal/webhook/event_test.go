package webhook

import (
	"errors"
	"testing"
	"time"
)

func TestParseEvent_InviteeCreated(t *testing.T) {
	raw := []byte(`{
		"event": "invitee.created",
		"payload": {
			"uri": "https://api.calendly.com/scheduled_events/E1/invitees/I1",
			"email": " ana@example.com ",
			"name": "Ana",
			"cancel_url": "https://calendly.com/cancellations/I1",
			"reschedule_url": "https://calendly.com/reschedulings/I1",
			"scheduled_event": {
				"event_type": "https://api.calendly.com/event_types/FADE",
				"start_time": "2026-05-01T15:00:00.000000Z"
			}
		}
	}`)

	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	created, ok := ev.(InviteeCreated)
	if !ok {
		t.Fatalf("event type = %T, want InviteeCreated", ev)
	}
	if created.Email != "ana@example.com" || created.Name != "Ana" {
		t.Fatalf("created = %+v", created)
	}
	if created.EventTypeURI != "https://api.calendly.com/event_types/FADE" {
		t.Fatalf("event type uri = %q", created.EventTypeURI)
	}
	if !created.StartTime.Equal(time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", created.StartTime)
	}
	if created.Kind() != KindInviteeCreated {
		t.Fatalf("kind = %q", created.Kind())
	}
}

func TestParseEvent_DefaultsInviteeName(t *testing.T) {
	raw := []byte(`{"event":"invitee.created","payload":{"uri":"u","email":"a@b.c","scheduled_event":{"event_type":"et","start_time":"2026-05-01T15:00:00Z"}}}`)
	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	if got := ev.(InviteeCreated).Name; got != "Client" {
		t.Fatalf("name = %q, want %q", got, "Client")
	}
}

func TestParseEvent_InviteeCanceled(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"invitee.canceled","payload":{"uri":"u1"}}`))
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	if c, ok := ev.(InviteeCanceled); !ok || c.URI != "u1" {
		t.Fatalf("event = %#v", ev)
	}
}

func TestParseEvent_Unrecognized(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"routing_form_submission.created","payload":{"anything":[1,2,3]}}`))
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	u, ok := ev.(Unrecognized)
	if !ok {
		t.Fatalf("event type = %T, want Unrecognized", ev)
	}
	if u.Kind() != "routing_form_submission.created" {
		t.Fatalf("kind = %q", u.Kind())
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":              `{`,
		"created missing uri":   `{"event":"invitee.created","payload":{"email":"a@b.c","scheduled_event":{"event_type":"et","start_time":"2026-05-01T15:00:00Z"}}}`,
		"created missing email": `{"event":"invitee.created","payload":{"uri":"u","scheduled_event":{"event_type":"et","start_time":"2026-05-01T15:00:00Z"}}}`,
		"created missing type":  `{"event":"invitee.created","payload":{"uri":"u","email":"a@b.c","scheduled_event":{"start_time":"2026-05-01T15:00:00Z"}}}`,
		"created bad start":     `{"event":"invitee.created","payload":{"uri":"u","email":"a@b.c","scheduled_event":{"event_type":"et","start_time":"tomorrow"}}}`,
		"canceled missing uri":  `{"event":"invitee.canceled","payload":{}}`,
		"canceled no payload":   `{"event":"invitee.canceled"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent([]byte(raw))
			if !errors.Is(err, ErrMalformedEvent) {
				t.Fatalf("err = %v, want %v", err, ErrMalformedEvent)
			}
		})
	}
}
