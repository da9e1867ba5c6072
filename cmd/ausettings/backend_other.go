//go:build !linux && !windows

package main

import (
	"fmt"
	"runtime"

	"ausettings/process"
)

func osFinder() (process.Finder, error) {
	return nil, fmt.Errorf("no OS process backend on %s, use --backend=image", runtime.GOOS)
}
