package main

import (
	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/bridge"
	"github.com/reusee/starbridge/logs"
)

type Module struct {
	dscope.Module
	Bridge bridge.Module
	Logs   logs.Module
}
