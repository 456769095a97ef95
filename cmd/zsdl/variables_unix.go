//go:build !windows
// +build !windows

package main

import (
	"fmt"

	"gitlab.com/poldi1405/go-ansi"
)

func color(content ...interface{}) string {
	return ansi.Blue(fmt.Sprint(content...))
}
