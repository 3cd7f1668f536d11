package appointments

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"barberbook/backend/internal/domain"
)

var (
	clientID      = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
	otherClientID = uuid.MustParse("00000000-0000-0000-0000-0000000000c2")
	barberID      = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	otherBarberID = uuid.MustParse("00000000-0000-0000-0000-0000000000b2")
	appointmentID = uuid.MustParse("00000000-0000-0000-0000-0000000000d1")
)

func testDetail() domain.AppointmentDetail {
	return domain.AppointmentDetail{
		Appointment: domain.Appointment{
			ID:              appointmentID,
			ClientID:        clientID,
			Status:          domain.StatusBooked,
			CancellationURL: "https://calendly.com/cancellations/I1",
		},
		BarberID: barberID,
	}
}

func TestAuthorizeCancel(t *testing.T) {
	tests := []struct {
		name      string
		requester domain.Principal
		allowed   bool
	}{
		{name: "owning client", requester: domain.Principal{ID: clientID, Role: domain.RoleClient}, allowed: true},
		{name: "owning barber", requester: domain.Principal{ID: barberID, Role: domain.RoleBarber}, allowed: true},
		{name: "other client", requester: domain.Principal{ID: otherClientID, Role: domain.RoleClient}},
		{name: "other barber", requester: domain.Principal{ID: otherBarberID, Role: domain.RoleBarber}},
		{name: "barber id with client role", requester: domain.Principal{ID: barberID, Role: domain.RoleClient}},
		{name: "client id with barber role", requester: domain.Principal{ID: clientID, Role: domain.RoleBarber}},
		{name: "unknown role", requester: domain.Principal{ID: clientID, Role: "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeCancel(tt.requester, testDetail())
			if tt.allowed {
				if err != nil {
					t.Fatalf("AuthorizeCancel error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("err = %v, want %v", err, ErrForbidden)
			}
			var authErr *AuthorizationError
			if !errors.As(err, &authErr) || authErr.AppointmentID != appointmentID {
				t.Fatalf("err = %#v, want *AuthorizationError", err)
			}
		})
	}
}
