package logs

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/starbridge/modes"
)

func TestHandler(t *testing.T) {
	dscope.New(new(Module), modes.ForTest(t)).Call(func(
		logger Logger,
	) {
		logger.Info("test", "hello", "world!")
	})
}

func TestComponent(t *testing.T) {
	buf := new(bytes.Buffer)
	dscope.New(new(Module), modes.ForTest(t)).Fork(
		func() Writer {
			return buf
		},
	).Call(func(
		logger Logger,
	) {
		Component(logger, "bridge").Warn("released")
	})
	if !strings.Contains(buf.String(), "component=bridge") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	defer SetLevel(slog.LevelInfo)
	buf := new(bytes.Buffer)
	dscope.New(new(Module), modes.ForTest(t)).Fork(
		func() Writer {
			return buf
		},
	).Call(func(
		logger Logger,
	) {
		SetLevel(slog.LevelError)
		logger.Info("hidden")
		SetLevel(slog.LevelDebug)
		logger.Debug("shown")
	})
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("got %q", buf.String())
	}
}
