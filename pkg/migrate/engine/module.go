package engine

import "go.uber.org/fx"

// Module provides the migration orchestrator to the fx application graph.
var Module = fx.Options(
	fx.Provide(NewOrchestrator),
)
