package gorm

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the GORM connection pool to the fx application graph and
// closes every open connection on shutdown.
var Module = fx.Options(
	fx.Provide(NewConnectionPool),
	fx.Invoke(func(lc fx.Lifecycle, pool *ConnectionPool) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return pool.CloseAll()
			},
		})
	}),
)
