package handlers

import (
	"context"

	subdto "github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/dto"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/application/subscription/usecases"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
)

// Use case interfaces for SubscriptionHandler

type listSubscriptionsUseCase interface {
	Execute(ctx context.Context, query usecases.ListSubscriptionsQuery) (*usecases.ListSubscriptionsResult, error)
}

type getSubscriptionUseCase interface {
	Execute(ctx context.Context, query usecases.GetSubscriptionQuery) (*subdto.SubscriptionDetailDTO, error)
}

type createSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateSubscriptionCommand) (*usecases.TransitionResult, error)
}

type upgradeSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.UpgradeSubscriptionCommand) (*usecases.TransitionResult, error)
}

type downgradeSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.DowngradeSubscriptionCommand) (*usecases.TransitionResult, error)
}

type cancelSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CancelSubscriptionCommand) (*usecases.TransitionResult, error)
}

type reactivateSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.ReactivateSubscriptionCommand) (*usecases.TransitionResult, error)
}

type linkBillingUseCase interface {
	Execute(ctx context.Context, cmd usecases.LinkBillingCommand) (*subscription.Subscription, error)
}

// SubscriptionUseCases groups the ledger operations exposed to administrators.
type SubscriptionUseCases struct {
	List        listSubscriptionsUseCase
	Get         getSubscriptionUseCase
	Create      createSubscriptionUseCase
	Upgrade     upgradeSubscriptionUseCase
	Downgrade   downgradeSubscriptionUseCase
	Cancel      cancelSubscriptionUseCase
	Reactivate  reactivateSubscriptionUseCase
	LinkBilling linkBillingUseCase
}
