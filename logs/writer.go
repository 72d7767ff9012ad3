package logs

import (
	"io"
	"os"

	"github.com/reusee/starbridge/modes"
)

type Writer io.Writer

func (Module) Writer(
	mode modes.Mode,
) Writer {
	if mode == modes.ModeDevelopment {
		return Discard
	}
	return os.Stderr
}

// Discard is a Writer for scopes that should not print anything.
var Discard Writer = io.Discard
