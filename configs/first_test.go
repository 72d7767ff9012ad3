package configs

import (
	"testing"
)

func TestFirst(t *testing.T) {
	loader := NewSourceLoader(testSources, testSchema)

	str := First[string](loader, "str")
	if str != "bar" {
		t.Fatalf("got %v", str)
	}

	type bridgeConfig struct {
		TraceLimit *int `json:"trace_limit"`
	}
	config := First[bridgeConfig](loader, "bridge")
	if config.TraceLimit == nil || *config.TraceLimit != 8 {
		t.Fatalf("got %+v", config)
	}

	missing := First[bridgeConfig](loader, "nope")
	if missing.TraceLimit != nil {
		t.Fatalf("got %+v", missing)
	}
}
