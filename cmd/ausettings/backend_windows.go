//go:build windows

package main

import (
	"ausettings/process"
	"ausettings/process_windows"
)

func osFinder() (process.Finder, error) {
	return process_windows.NewProcessFinder(), nil
}
