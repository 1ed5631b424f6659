package fx

import (
	"lottery-proxy/internal/api"
	"lottery-proxy/internal/config"
	"lottery-proxy/internal/database"
	"lottery-proxy/internal/logger"
	"lottery-proxy/internal/repository"
	"lottery-proxy/internal/server"
	"lottery-proxy/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewDrawRepository),
	// api clients
	fx.Provide(api.NewMinhNgocClient),
	fx.Provide(api.NewXosoClient),
	// svc
	fx.Provide(service.NewSyncService),
	fx.Provide(service.NewAuditService),
	fx.Provide(service.NewCronScheduler),
	// server
	fx.Provide(server.New),
)
