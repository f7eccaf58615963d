package serialmux

import (
	"time"

	"go.bug.st/serial"
)

// NoReadTimeout requests fully blocking reads. The mux depends on blocking
// reads that Close unblocks, so ports that support timeouts are pinned to
// this mode when opened.
const NoReadTimeout time.Duration = -1

// NewSerialMuxFromFactory opens a port through the given factory and wraps
// it in a SerialMux. Options are normalized before the factory sees them.
func NewSerialMuxFromFactory(path string, opts PortOptions, factory SerialPortFactory) (*SerialMux[SerialPorter], error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	port, err := factory.Open(path, normalized)
	if err != nil {
		return nil, err
	}

	if tp, ok := port.(TimeoutSerialPorter); ok {
		if err := tp.SetReadTimeout(NoReadTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}

	return NewSerialMux[SerialPorter](port), nil
}

// openRealPort opens a hardware serial port via go.bug.st/serial.
func openRealPort(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	return serial.Open(path, mode)
}

// NewRealSerialMux creates a SerialMux instance backed by a real serial
// port at the given path using the provided serial options.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux[SerialPorter], error) {
	return NewSerialMuxFromFactory(path, opts, SerialPortOpener(openRealPort))
}
