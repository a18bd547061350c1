// looper is the serial demo firmware: it prints a startup line, then
// "Looping..." once per second until power loss or reset.
//
//	tinygo flash -target arduino ./firmware/looper
package main

import "github.com/embeddemo/cli/internal/looper"

func main() {
	out := openSerial(looper.BaudRate)
	looper.New(out).RunForever()
}
