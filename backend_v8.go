//go:build v8

package uijet

import (
	"github.com/uijet/uijet/internal/core"
	"github.com/uijet/uijet/internal/v8engine"
)

func newRuntime(memoryLimitMB int) (core.JSRuntime, error) {
	return v8engine.New(memoryLimitMB)
}
