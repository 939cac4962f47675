package parser

import "go.uber.org/fx"

// Module is an Fx module that provides the parser Registry with all built-in
// source-system parsers registered.
var Module = fx.Options(
	fx.Provide(NewRegistry),
)
