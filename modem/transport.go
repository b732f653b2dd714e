package modem

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/onprem-sms/engine/smserr"
)

// chunkTimeout bounds a single read of the serial port. DrainResponse
// loops reads of this length, accumulating bytes until a terminal
// substring appears or a read comes back empty, matching how the
// modems this driver targets interleave final result codes with
// unsolicited codes rather than emitting one tidy line at a time.
const chunkTimeout = 200 * time.Millisecond

// Channel is a single bidirectional conversation with one modem: write
// a command line, drain whatever comes back. Implementations are not
// required to be safe for concurrent use; the session holds one
// Channel for the lifetime of one delivery attempt.
type Channel interface {
	// WriteLine writes line followed by a carriage return.
	WriteLine(line string) error

	// DrainResponse reads until a final result code ("OK", "ERROR"),
	// the SMS prompt (">"), or a read returns no further data, and
	// returns everything accumulated.
	DrainResponse() string

	// ClearBuffers discards any bytes already buffered, so a stale URC
	// from a previous command does not leak into the next read.
	ClearBuffers()

	// Close releases the underlying port.
	Close() error
}

// serialChannel implements Channel over a go.bug.st/serial port.
type serialChannel struct {
	port serial.Port
}

// OpenChannel opens the serial device named by desc and configures it
// for 8N1 communication at the descriptor's baud rate.
func OpenChannel(desc ModemDescriptor) (Channel, error) {
	baud := desc.BaudRate
	if baud == 0 {
		baud = defaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(desc.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", smserr.ErrModemOpenFailed, desc.Port, err)
	}
	if err := port.SetReadTimeout(chunkTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: %s: set read timeout: %v", smserr.ErrModemOpenFailed, desc.Port, err)
	}
	return &serialChannel{port: port}, nil
}

func (c *serialChannel) WriteLine(line string) error {
	_, err := c.port.Write([]byte(line + "\r"))
	return err
}

func (c *serialChannel) DrainResponse() string {
	var b strings.Builder
	buf := make([]byte, 1024)
	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil || n == 0 {
			return b.String()
		}
		acc := b.String()
		if strings.Contains(acc, "OK") || strings.Contains(acc, "ERROR") || strings.Contains(acc, ">") {
			return acc
		}
	}
}

func (c *serialChannel) ClearBuffers() {
	c.port.ResetInputBuffer()
	c.port.ResetOutputBuffer()
}

func (c *serialChannel) Close() error {
	return c.port.Close()
}
