package mapper

import "go.uber.org/fx"

// Module is an Fx module that provides the Mapper.
var Module = fx.Options(
	fx.Provide(NewMapper),
)
