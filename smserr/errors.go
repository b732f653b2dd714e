// Package smserr defines the sentinel error kinds of the SMS engine.
//
// Call sites wrap these with fmt.Errorf's %w and inspect them with
// errors.Is.
package smserr

import "errors"

var (
	// ErrInvalidConfig is returned for an empty modem descriptor list
	// passed to Start or Dispatch, and for a descriptor list that
	// DecodeModemDescriptors cannot parse.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreIO is returned when the queue store or its directory
	// cannot be opened or created.
	ErrStoreIO = errors.New("store io failure")

	// ErrStoreRuntime is returned when a query fails after the store
	// connection is already established.
	ErrStoreRuntime = errors.New("store runtime failure")

	// ErrModemUnresponsive is returned when the AT sanity check fails
	// after retries.
	ErrModemUnresponsive = errors.New("modem unresponsive")

	// ErrModemUnregistered is returned when registration probes are
	// exhausted without the modem reporting home or roaming status.
	ErrModemUnregistered = errors.New("modem not registered")

	// ErrModemProtocol is returned when the modem's final response to
	// an SMS submission (after the Ctrl-Z) contains ERROR.
	ErrModemProtocol = errors.New("modem protocol error")

	// ErrModemOpenFailed is returned when the serial device cannot be
	// opened.
	ErrModemOpenFailed = errors.New("modem open failed")

	// ErrAllCarriersFailed is returned when every candidate modem from
	// the dispatch strategy produced an error.
	ErrAllCarriersFailed = errors.New("all allowed carriers failed")
)
