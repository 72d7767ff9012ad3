package configs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/logs"
	"github.com/reusee/starbridge/modes"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}

//go:embed schema.cue
var Schema string

var fileNames = []string{
	"starbridge.cue",
	".starbridge.cue",
}

func (Module) Loader(
	logger logs.Logger,
	mode modes.Mode,
) Loader {
	if mode == modes.ModeDevelopment {
		// config files on the machine do not affect tests
		return NewSourceLoader(nil, Schema)
	}

	var paths []string
	var dirs []string
	if dir, err := os.Getwd(); err == nil {
		dirs = append(dirs, dir)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, "/etc")

	for _, dir := range dirs {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	if len(paths) > 0 {
		logger.Info("config file",
			"paths", paths,
		)
	}

	return NewLoader(paths, Schema)
}
