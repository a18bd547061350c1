// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: monitor  —  print what the board writes on its serial line
// ─────────────────────────────────────────────────────────────────────────────

package monitor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Options controls how lines are echoed.
type Options struct {
	Lines      int  // stop after this many lines; 0 = until cancelled
	Timestamps bool // prefix each line with the local time
	Now        func() time.Time
}

// Stream copies lines from r to w until EOF, ctx is done, or opts.Lines
// lines were written. Trailing CR is dropped. It returns the number of
// lines written.
func Stream(ctx context.Context, r io.Reader, w io.Writer, opts Options) (int, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if opts.Timestamps {
			line = now().Format("15:04:05.000") + "  " + line
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return n, err
		}
		n++
		if opts.Lines > 0 && n >= opts.Lines {
			return n, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return n, err
	}
	return n, sc.Err()
}

// openPort opens a serial device at the given line speed. Tests replace it.
var openPort = func(path string, baud int) (io.ReadCloser, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}

// Monitor opens the serial device at path, sets it to baud 8N1 and streams
// it to w. The device is closed when ctx is cancelled, which unblocks the
// read.
func Monitor(ctx context.Context, path string, baud int, w io.Writer, opts Options) (int, error) {
	if baud <= 0 {
		return 0, fmt.Errorf("invalid baud rate %d", baud)
	}
	port, err := openPort(path, baud)
	if err != nil {
		return 0, fmt.Errorf("opening %s at %d baud: %w", path, baud, err)
	}
	closePort := sync.OnceFunc(func() {
		if err := port.Close(); err != nil {
			glog.Warningf("closing %s: %v", path, err)
		}
	})
	defer closePort()
	stop := context.AfterFunc(ctx, closePort)
	defer stop()

	glog.V(1).Infof("monitoring %s at %d baud", path, baud)
	n, err := Stream(ctx, port, w, opts)
	if ctx.Err() != nil {
		return n, ctx.Err()
	}
	return n, err
}
