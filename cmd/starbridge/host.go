package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/reusee/starbridge/bridge"
)

// files is exposed to scripts as the "files" global.
type files struct{}

func (files) Read(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (files) Write(path string, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func (files) Glob(pattern string) ([]any, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	ret := make([]any, len(matches))
	for i, m := range matches {
		ret[i] = m
	}
	return ret, nil
}

func newBuffer() *strings.Builder {
	return new(strings.Builder)
}

func defineHost(b *bridge.Bridge) error {
	b.DefineClass("Buffer", reflect.TypeFor[*strings.Builder](), newBuffer)
	b.Runtime().DefineFunc("basename", filepath.Base)
	return b.Predeclare("files", files{})
}
