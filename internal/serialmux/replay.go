package serialmux

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/banshee-data/prt7.report/internal/timeutil"
)

// ReplayPort implements SerialPorter on top of a capture file, standing in
// for the transmitter when no hardware is attached. Lines are released one
// at a time with an optional inter-line delay to approximate serial
// pacing; reads return io.EOF once the file is exhausted, which Monitor
// treats as the end of the session. Writes are accepted and discarded.
type ReplayPort struct {
	reader *io.PipeReader
	clock  timeutil.Clock

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewReplayPort opens the capture file at path. A zero delay releases
// lines as fast as the reader consumes them.
func NewReplayPort(path string, delay time.Duration) (*ReplayPort, error) {
	return newReplayPort(path, delay, timeutil.RealClock{})
}

func newReplayPort(path string, delay time.Duration, clock timeutil.Clock) (*ReplayPort, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	r, w := io.Pipe()
	p := &ReplayPort{
		reader: r,
		clock:  clock,
		done:   make(chan struct{}),
	}

	go func() {
		defer f.Close()
		defer w.Close()
		scan := bufio.NewScanner(f)
		for scan.Scan() {
			if _, err := w.Write(append(scan.Bytes(), '\n')); err != nil {
				return
			}
			if delay > 0 {
				select {
				case <-p.clock.After(delay):
				case <-p.done:
					return
				}
			}
		}
	}()

	return p, nil
}

func (p *ReplayPort) Read(buf []byte) (int, error) {
	return p.reader.Read(buf)
}

// Write discards commands; a capture file has no device to talk back to.
func (p *ReplayPort) Write(data []byte) (int, error) {
	return len(data), nil
}

func (p *ReplayPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	return p.reader.Close()
}

// NewReplaySerialMux creates a SerialMux that replays the capture file at
// the given path.
func NewReplaySerialMux(path string, delay time.Duration) (*SerialMux[*ReplayPort], error) {
	port, err := NewReplayPort(path, delay)
	if err != nil {
		return nil, err
	}
	return NewSerialMux(port), nil
}
