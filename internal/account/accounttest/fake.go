// Package accounttest provides an in-memory user-service client for tests.
package accounttest

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MikeMC777/costeo/internal/userpb"
)

// UserClient implements userpb.UserServiceClient over a map of accounts.
// Plans overrides the plan of a tenant; Err fails every call.
type UserClient struct {
	mu       sync.Mutex
	Accounts map[string]userpb.Account
	Plans    map[string]string
	Err      error
}

func NewUserClient(accs ...userpb.Account) *UserClient {
	f := &UserClient{Accounts: map[string]userpb.Account{}, Plans: map[string]string{}}
	for _, a := range accs {
		f.Accounts[a.UserID] = a
	}
	return f
}

func (f *UserClient) ValidateUser(_ context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	_, ok := f.Accounts[in.GetValue()]
	return wrapperspb.Bool(ok), nil
}

func (f *UserClient) GetAccount(_ context.Context, in *wrapperspb.StringValue, _ ...grpc.CallOption) (*structpb.Struct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	a, ok := f.Accounts[in.GetValue()]
	if !ok {
		return nil, status.Error(codes.NotFound, "user not found")
	}
	if p, ok := f.Plans[a.TenantID]; ok {
		a.Plan = p
	}
	return a.Struct()
}

func (f *UserClient) SetPlan(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	req, err := userpb.SetPlanFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.Plans[req.TenantID] = req.Plan
	return &emptypb.Empty{}, nil
}

// Plan returns the last plan set for a tenant.
func (f *UserClient) Plan(tenantID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Plans[tenantID]
}

// SetPlanOf changes the plan reported for a tenant.
func (f *UserClient) SetPlanOf(tenantID, tier string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Plans[tenantID] = tier
}

// Remove drops an account, as if the user had been deleted.
func (f *UserClient) Remove(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Accounts, userID)
}

// Fail makes every call return err; nil restores normal answers.
func (f *UserClient) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

var _ userpb.UserServiceClient = (*UserClient)(nil)
