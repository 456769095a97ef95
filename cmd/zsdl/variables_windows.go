//go:build windows
// +build windows

package main

import "fmt"

// Windows terminals don't handle the ANSI colors reliably
func color(content ...interface{}) string {
	return fmt.Sprint(content...)
}
