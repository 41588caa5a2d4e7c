package user

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MikeMC777/costeo/internal/plan"
	pb "github.com/MikeMC777/costeo/internal/userpb"
)

// Service is the gRPC face of the user-service. Other services use it to check
// users and read or change the plan of a tenant.
type Service struct {
	pb.UnimplementedUserServiceServer
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ValidateUser (exists by ID)
func (s *Service) ValidateUser(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	_, err := s.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return wrapperspb.Bool(false), nil
		}
		return nil, status.Errorf(codes.Internal, "validate error: %v", err)
	}
	return wrapperspb.Bool(true), nil
}

func (s *Service) GetAccount(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	u, err := s.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Errorf(codes.Internal, "get error: %v", err)
	}
	t, err := s.repo.GetTenant(ctx, u.TenantID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, status.Error(codes.NotFound, "tenant not found")
		}
		return nil, status.Errorf(codes.Internal, "tenant error: %v", err)
	}
	out, err := pb.Account{
		UserID:   u.ID,
		TenantID: t.ID,
		Role:     u.Role,
		Email:    u.Email,
		Name:     u.Name,
		Plan:     string(t.EffectivePlan(s.now())),
	}.Struct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode error: %v", err)
	}
	return out, nil
}

func (s *Service) SetPlan(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	req, err := pb.SetPlanFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	tier, err := plan.Parse(req.Plan)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.repo.SetPlan(ctx, req.TenantID, tier, req.ExpiresAt); err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, status.Error(codes.NotFound, "tenant not found")
		}
		return nil, status.Errorf(codes.Internal, "set plan error: %v", err)
	}
	return &emptypb.Empty{}, nil
}
