package foreign

import (
	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/configs"
	"github.com/reusee/starbridge/logs"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}

func (Module) Config(
	loader configs.Loader,
) Config {
	return configs.First[Config](loader, "foreign")
}

func (Module) Runtime(
	logger logs.Logger,
	config Config,
) *Runtime {
	return New(logger, config)
}
