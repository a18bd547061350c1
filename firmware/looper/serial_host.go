//go:build !tinygo

package main

import (
	"io"
	"os"
)

// openSerial on a host has no UART; stdout stands in for it.
func openSerial(uint32) io.Writer {
	return os.Stdout
}
