package httpapi

import (
	"time"

	"barberbook/backend/internal/domain"
)

type userJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	CalendlyLink string `json:"calendlyLink,omitempty"`
	Connected    bool   `json:"calendlyConnected"`
}

type sessionJSON struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

type serviceJSON struct {
	ID                string `json:"id"`
	BarberID          string `json:"barberId"`
	Name              string `json:"name"`
	PriceCents        int64  `json:"priceCents"`
	CalendlyEventType string `json:"calendlyEventType,omitempty"`
	CalendlyEventURI  string `json:"calendlyEventUri,omitempty"`
}

type barberJSON struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	CalendlyLink string        `json:"calendlyLink,omitempty"`
	Services     []serviceJSON `json:"services"`
}

type appointmentJSON struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"clientId"`
	ServiceID       string    `json:"serviceId"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	Status          string    `json:"status"`
	CancellationURL string    `json:"cancellationUrl,omitempty"`
	RescheduleURL   string    `json:"rescheduleUrl,omitempty"`
}

type appointmentViewJSON struct {
	ID              string    `json:"id"`
	ScheduledAt     time.Time `json:"scheduledAt"`
	Status          string    `json:"status"`
	CancellationURL string    `json:"cancellationUrl,omitempty"`
	RescheduleURL   string    `json:"rescheduleUrl,omitempty"`
	Service         struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		PriceCents int64  `json:"priceCents"`
	} `json:"service"`
	OtherUser struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"otherUser"`
}

func toUserJSON(u domain.User) userJSON {
	_, connected := u.Credential()
	return userJSON{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		CalendlyLink: u.CalendlyLink,
		Connected:    connected,
	}
}

func toServiceJSON(s domain.Service) serviceJSON {
	return serviceJSON{
		ID:                s.ID.String(),
		BarberID:          s.BarberID.String(),
		Name:              s.Name,
		PriceCents:        s.PriceCents,
		CalendlyEventType: s.EventType,
		CalendlyEventURI:  s.EventTypeURI,
	}
}

func toServicesJSON(in []domain.Service) []serviceJSON {
	out := make([]serviceJSON, 0, len(in))
	for _, s := range in {
		out = append(out, toServiceJSON(s))
	}
	return out
}

func toBarberJSON(b domain.Barber) barberJSON {
	return barberJSON{
		ID:           b.ID.String(),
		Name:         b.Name,
		Email:        b.Email,
		CalendlyLink: b.CalendlyLink,
		Services:     toServicesJSON(b.Services),
	}
}

func toAppointmentJSON(a domain.Appointment) appointmentJSON {
	return appointmentJSON{
		ID:              a.ID.String(),
		ClientID:        a.ClientID.String(),
		ServiceID:       a.ServiceID.String(),
		ScheduledAt:     a.ScheduledAt.UTC(),
		Status:          string(a.Status),
		CancellationURL: a.CancellationURL,
		RescheduleURL:   a.RescheduleURL,
	}
}

func toAppointmentViewsJSON(in []domain.AppointmentView) []appointmentViewJSON {
	out := make([]appointmentViewJSON, 0, len(in))
	for _, v := range in {
		j := appointmentViewJSON{
			ID:              v.ID.String(),
			ScheduledAt:     v.ScheduledAt.UTC(),
			Status:          string(v.Status),
			CancellationURL: v.CancellationURL,
			RescheduleURL:   v.RescheduleURL,
		}
		j.Service.ID = v.Service.ID.String()
		j.Service.Name = v.Service.Name
		j.Service.PriceCents = v.Service.PriceCents
		j.OtherUser.ID = v.OtherUser.ID.String()
		j.OtherUser.Name = v.OtherUser.Name
		j.OtherUser.Email = v.OtherUser.Email
		out = append(out, j)
	}
	return out
}
