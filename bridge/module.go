package bridge

import (
	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/configs"
	"github.com/reusee/starbridge/foreign"
	"github.com/reusee/starbridge/logs"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Foreign foreign.Module
	Logs    logs.Module
}

func (Module) Config(
	loader configs.Loader,
) Config {
	return configs.First[Config](loader, "bridge")
}

func (Module) Bridge(
	runtime *foreign.Runtime,
	logger logs.Logger,
	config Config,
) *Bridge {
	return New(runtime, logger, config)
}
