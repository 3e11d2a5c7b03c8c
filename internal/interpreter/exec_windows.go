//go:build windows

package interpreter

import (
	"time"

	"mvdan.cc/sh/v3/interp"
)

// NewProcessGroupExecHandler falls back to the default exec handler, since
// Windows has no Unix process groups.
func NewProcessGroupExecHandler(killTimeout time.Duration) interp.ExecHandlerFunc {
	return interp.DefaultExecHandler(killTimeout)
}
