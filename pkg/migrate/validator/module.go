package validator

import "go.uber.org/fx"

// Module is an Fx module that provides the Validator.
var Module = fx.Options(
	fx.Provide(NewValidator),
)
