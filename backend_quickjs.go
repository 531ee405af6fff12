//go:build !v8

package uijet

import (
	"github.com/uijet/uijet/internal/core"
	"github.com/uijet/uijet/internal/quickjs"
)

func newRuntime(memoryLimitMB int) (core.JSRuntime, error) {
	return quickjs.New(memoryLimitMB)
}
