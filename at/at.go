// Package at holds the Hayes/3GPP AT command and response constants
// shared by the modem session state machine. It intentionally carries
// no line-tokenizing logic: modem sessions here drain raw output and
// look for a handful of known substrings rather than parsing a stream
// of discrete lines, since unsolicited codes can interleave with a
// command's own response at any point.
package at

const (
	// Terminal control.
	CRLF   = "\r\n"
	Prompt = ">"
	CtrlZ  = "\x1A"

	// Final result codes.
	OK       = "OK"
	ERROR    = "ERROR"
	CmeError = "+CME ERROR:"
	CmsError = "+CMS ERROR:"

	// Commands used by the modem session.
	CmdAt          = "AT"
	CmdEchoOff     = "ATE0"
	CmdSetTextMode = "AT+CMGF=1"
	CmdSendSMS     = "AT+CMGS"

	// CmdRegistrationStatus queries are tried in turn: CREG covers
	// 2G/3G circuit-switched registration, CEREG covers LTE, CGREG
	// covers GPRS/packet-switched. Different modems report on different
	// subsets depending on radio generation.
	CmdRegistrationCREG  = "AT+CREG?"
	CmdRegistrationCEREG = "AT+CEREG?"
	CmdRegistrationCGREG = "AT+CGREG?"

	// RegHome and RegRoaming are the registration-status digits that
	// indicate the modem has attached to a network, whether its own
	// home network or a roaming partner.
	RegHome    = '1'
	RegRoaming = '5'

	// CmdCharsetGSM and CmdCharsetUCS2 select the character set used to
	// interpret recipient and payload bytes sent to the modem.
	CmdCharsetGSM  = `AT+CSCS="GSM"`
	CmdCharsetUCS2 = `AT+CSCS="UCS2"`

	// CmdTextModeParamsGSM and CmdTextModeParamsUCS2 set the AT+CSMP
	// data-coding-scheme field: 0 for the default GSM 7-bit alphabet, 8
	// for UCS-2.
	CmdTextModeParamsGSM  = "AT+CSMP=17,167,0,0"
	CmdTextModeParamsUCS2 = "AT+CSMP=17,167,0,8"
)
