package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"barberbook/backend/internal/calendly"
	"barberbook/backend/internal/domain"
	"barberbook/backend/internal/service/appointments"
	"barberbook/backend/internal/service/tokens"
	"barberbook/backend/internal/store"
)

const integrationServiceName = "barberbook.v1.IntegrationService"

// IntegrationServiceServer is the server API for barberbook.v1.IntegrationService.
// Messages are protobuf well-known types so no generated code is needed.
type IntegrationServiceServer interface {
	VerifyConnection(ctx context.Context, req *emptypb.Empty) (*wrapperspb.BoolValue, error)
	CancelAppointment(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
}

var IntegrationServiceDesc = grpc.ServiceDesc{
	ServiceName: integrationServiceName,
	HandlerType: (*IntegrationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "VerifyConnection", Handler: verifyConnectionHandler},
		{MethodName: "CancelAppointment", Handler: cancelAppointmentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "barberbook/v1/integration.proto",
}

func RegisterIntegrationServiceServer(s grpc.ServiceRegistrar, srv IntegrationServiceServer) {
	s.RegisterService(&IntegrationServiceDesc, srv)
}

func verifyConnectionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntegrationServiceServer).VerifyConnection(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + integrationServiceName + "/VerifyConnection"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntegrationServiceServer).VerifyConnection(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelAppointmentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntegrationServiceServer).CancelAppointment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + integrationServiceName + "/CancelAppointment"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntegrationServiceServer).CancelAppointment(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type connectionVerifier interface {
	Verify(ctx context.Context, requester domain.Principal) bool
}

type appointmentCanceller interface {
	RequestCancel(ctx context.Context, requester domain.Principal, appointmentID uuid.UUID) error
}

type IntegrationServer struct {
	integration  connectionVerifier
	appointments appointmentCanceller
	log          *slog.Logger
}

func NewIntegrationServer(integration connectionVerifier, appts appointmentCanceller, log *slog.Logger) *IntegrationServer {
	if log == nil {
		log = slog.Default()
	}
	return &IntegrationServer{
		integration:  integration,
		appointments: appts,
		log:          log.With(slog.String("component", "grpc.integration")),
	}
}

func (s *IntegrationServer) VerifyConnection(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no principal")
	}
	connected := s.integration.Verify(ctx, p)
	s.log.Debug("connection verified", slog.String("rpc", "VerifyConnection"), slog.String("user_id", p.ID.String()), slog.Bool("connected", connected))
	return wrapperspb.Bool(connected), nil
}

func (s *IntegrationServer) CancelAppointment(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	log := s.log.With(slog.String("rpc", "CancelAppointment"))

	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no principal")
	}
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.GetValue())
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.String("user_id", p.ID.String()))
		return nil, status.Error(codes.InvalidArgument, "appointment id must be a UUID")
	}

	if err := s.appointments.RequestCancel(ctx, p, id); err != nil {
		log = log.With(slog.String("appointment_id", id.String()), slog.String("user_id", p.ID.String()))
		return nil, toStatus(log, err)
	}

	log.Info("cancel requested", slog.String("appointment_id", id.String()), slog.String("user_id", p.ID.String()))
	return &emptypb.Empty{}, nil
}

func toStatus(log *slog.Logger, err error) error {
	var vErr *domain.ValidationError
	var apiErr *calendly.APIError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, store.ErrNotFound):
		log.Info("appointment not found")
		return status.Error(codes.NotFound, "appointment not found")
	case errors.Is(err, domain.ErrForbidden):
		log.Warn("permission denied")
		return status.Error(codes.PermissionDenied, "not authorized to cancel this appointment")
	case errors.Is(err, appointments.ErrNoCancellationURL):
		return status.Error(codes.FailedPrecondition, "no cancellation url available")
	case tokens.IsNotConnected(err):
		log.Warn("provider integration unavailable", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, "calendly integration not connected")
	case errors.As(err, &apiErr):
		log.Warn("provider call failed", slog.Int("provider_status", apiErr.Status))
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return status.Error(codes.FailedPrecondition, "calendly rejected the request")
		}
		return status.Error(codes.Unavailable, "calendly unavailable")
	default:
		log.Error("cancel failed", slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}
}
