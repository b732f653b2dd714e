// Package codec classifies message bodies as GSM 03.38 7-bit compatible
// or requiring UCS-2, and encodes text into the UCS-2 hex wire form GSM
// modems expect in AT+CSCS="UCS2" mode.
//
// The codec is pure and side-effect-free: it makes no decision about
// how a message is transported, only how its bytes should look on the
// wire.
package codec

import (
	"strings"
	"unicode/utf16"
)

// basicAlphabet is the GSM 03.38 default 7-bit alphabet.
const basicAlphabet = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

// extensionAlphabet is the standard GSM 03.38 extension table.
const extensionAlphabet = "^{}\\[~]|€"

var basicSet = runeSet(basicAlphabet)
var extensionSet = runeSet(extensionAlphabet)

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// IsBasicGsmCompatible reports whether every character of msg lies in
// the GSM 03.38 default alphabet or its standard extension table. A
// false result means the message must be sent in UCS-2.
func IsBasicGsmCompatible(msg string) bool {
	for _, r := range msg {
		if _, ok := basicSet[r]; ok {
			continue
		}
		if _, ok := extensionSet[r]; ok {
			continue
		}
		return false
	}
	return true
}

// ToUcs2Hex encodes s as big-endian UTF-16 code units, emitted as
// concatenated uppercase 4-hex-digit groups, the form AT+CSCS="UCS2"
// modems require for both the recipient address and the payload.
func ToUcs2Hex(s string) string {
	units := utf16.Encode([]rune(s))
	var b strings.Builder
	b.Grow(len(units) * 4)
	const hexDigits = "0123456789ABCDEF"
	for _, u := range units {
		b.WriteByte(hexDigits[(u>>12)&0xF])
		b.WriteByte(hexDigits[(u>>8)&0xF])
		b.WriteByte(hexDigits[(u>>4)&0xF])
		b.WriteByte(hexDigits[u&0xF])
	}
	return b.String()
}
