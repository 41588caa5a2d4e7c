// Package account is the client side of the user-service used by the inventory and
// billing services: user checks, plan lookups and plan changes over gRPC.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MikeMC777/costeo/internal/plan"
	"github.com/MikeMC777/costeo/internal/userpb"
)

var ErrUnknownUser = errors.New("user not found")

type Ext struct {
	User userpb.UserServiceClient
}

func NewExt(userAddr string) (*Ext, error) {
	// Non-blocking gRPC connection (RPC will use WaitForReady)
	conn, err := grpc.NewClient(userAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Ext{User: userpb.NewUserServiceClient(conn)}, nil
}

func (e *Ext) ValidateUser(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := e.User.ValidateUser(ctx, wrapperspb.String(id), grpc.WaitForReady(true))
	if err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// Account returns the caller's account and the plan currently in force.
func (e *Ext) Account(ctx context.Context, userID string) (userpb.Account, plan.Tier, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := e.User.GetAccount(ctx, wrapperspb.String(userID), grpc.WaitForReady(true))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return userpb.Account{}, "", ErrUnknownUser
		}
		return userpb.Account{}, "", fmt.Errorf("get account: %w", err)
	}
	acc := userpb.AccountFromStruct(out)
	tier, err := plan.Parse(acc.Plan)
	if err != nil {
		tier = plan.Free
	}
	return acc, tier, nil
}

// Limits is Account reduced to what feature gates need.
func (e *Ext) Limits(ctx context.Context, userID string) (plan.Limits, error) {
	_, tier, err := e.Account(ctx, userID)
	if err != nil {
		return plan.Limits{}, err
	}
	return tier.Limits(), nil
}

func (e *Ext) SetPlan(ctx context.Context, tenantID string, tier plan.Tier) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	in, err := userpb.SetPlanRequest{TenantID: tenantID, Plan: string(tier)}.Struct()
	if err != nil {
		return err
	}
	if _, err := e.User.SetPlan(ctx, in, grpc.WaitForReady(true)); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}
