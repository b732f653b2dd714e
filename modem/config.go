package modem

// ModemDescriptor identifies one configured GSM modem channel: the
// serial device it lives on, how to talk to it, and where it sits in
// the dispatch strategy's priority order.
type ModemDescriptor struct {
	// ID is a short operator-assigned label used in logs and in the
	// dispatch trace string, e.g. "modem-a".
	ID string `json:"id"`

	// Port is the OS device path, e.g. "/dev/ttyUSB0" or "COM3".
	Port string `json:"port"`

	// BaudRate is the serial line speed. Zero means the transport's
	// default (115200).
	BaudRate int `json:"baud_rate"`

	// Priority orders candidates within a dispatch strategy: lower
	// values are tried first. Ties keep descriptor list order.
	Priority uint8 `json:"priority"`
}

const defaultBaudRate = 115200
