package main

import (
	"context"
	"log/slog"
	"os"

	"storefront/config"
	"storefront/internal/delivery"
	"storefront/internal/delivery/api"
	"storefront/internal/delivery/api/router/handler"
	"storefront/internal/delivery/middleware"
	"storefront/internal/infra/auth"
	"storefront/internal/infra/commerce"
	"storefront/internal/infra/kvstore"
	logs "storefront/internal/infra/log"
	"storefront/internal/infra/payment"
	"storefront/internal/infra/pubsub"
	"storefront/internal/infra/tracing"
	"storefront/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectGateway(),
		injectPayment(),
		injectService(),
		injectUsecase(),
		injectMiddleware(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
		),
		kvstore.Module,
		pubsub.Module,
		tracing.Module,
	)
}

func injectGateway() fx.Option {
	return fx.Provide(
		commerce.New,
	)
}

func injectPayment() fx.Option {
	return payment.Module
}

func injectService() fx.Option {
	return fx.Provide(
		auth.NewJWTService,
	)
}

func injectUsecase() fx.Option {
	return fx.Provide(
		impl.NewStoreDataService,
		impl.NewSessionManager,
	)
}

func injectMiddleware() fx.Option {
	return fx.Provide(
		middleware.NewSessionMiddleware,
		middleware.NewIdentityMiddleware,
	)
}

func injectHandler() fx.Option {
	return fx.Provide(
		handler.NewCartHandler,
		handler.NewWishlistHandler,
		handler.NewCouponHandler,
		handler.NewCheckoutHandler,
		handler.NewStoreHandler,
	)
}

func injectDelivery() fx.Option {
	return fx.Provide(
		fx.Annotate(
			api.NewServer,
			fx.ResultTags(`group:"deliveries"`),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
