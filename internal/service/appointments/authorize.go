package appointments

import (
	"fmt"

	"github.com/google/uuid"

	"barberbook/backend/internal/domain"
)

var ErrForbidden = domain.ErrForbidden

// AuthorizationError is returned when a principal may not change an
// appointment. It matches ErrForbidden with errors.Is.
type AuthorizationError struct {
	PrincipalID   uuid.UUID
	AppointmentID uuid.UUID
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("principal %s may not cancel appointment %s", e.PrincipalID, e.AppointmentID)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrForbidden
}

// AuthorizeCancel allows the client who booked the appointment and the
// barber who owns the booked service. Everyone else is denied.
func AuthorizeCancel(requester domain.Principal, appt domain.AppointmentDetail) error {
	switch requester.Role {
	case domain.RoleClient:
		if requester.ID == appt.ClientID {
			return nil
		}
	case domain.RoleBarber:
		if requester.ID == appt.BarberID {
			return nil
		}
	}
	return &AuthorizationError{PrincipalID: requester.ID, AppointmentID: appt.ID}
}
