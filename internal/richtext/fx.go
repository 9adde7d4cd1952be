package richtext

import "go.uber.org/fx"

var Module = fx.Module("richtext",
	fx.Provide(New),
)
