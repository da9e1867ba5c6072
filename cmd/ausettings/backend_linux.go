//go:build linux

package main

import (
	"ausettings/process"
	"ausettings/process_linux"
)

func osFinder() (process.Finder, error) {
	return process_linux.NewProcessFinder(), nil
}
