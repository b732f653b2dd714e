package codec_test

import (
	"testing"
	"unicode/utf16"

	"github.com/onprem-sms/engine/codec"
)

func TestIsBasicGsmCompatible(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want bool
	}{
		{"plain ascii", "hello world", true},
		{"digits and punctuation", "Call +1 (555) 123-4567 now!", true},
		{"extension char euro", "Price: 5€", true},
		{"extension char pipe", "a|b", true},
		{"accented basic char in set", "café", true},
		{"accented char outside set", "crêpe", false}, // 'ê' is not in the basic/ext set
		{"emoji forces unicode", "héllo \U0001F600", false},
		{"cjk forces unicode", "你好", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := codec.IsBasicGsmCompatible(c.msg); got != c.want {
				t.Errorf("IsBasicGsmCompatible(%q) = %v, want %v", c.msg, got, c.want)
			}
		})
	}
}

func TestToUcs2Hex(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"ascii", "hi"},
		{"accented", "héllo"},
		{"emoji surrogate pair", "\U0001F600"},
		{"empty", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			hex := codec.ToUcs2Hex(c.in)
			if len(hex)%4 != 0 {
				t.Fatalf("ToUcs2Hex(%q) = %q, length %d is not a multiple of 4", c.in, hex, len(hex))
			}
			units := utf16.Encode([]rune(c.in))
			if len(hex) != len(units)*4 {
				t.Fatalf("ToUcs2Hex(%q) produced %d hex chars, want %d", c.in, len(hex), len(units)*4)
			}
			for _, r := range hex {
				if !((r >= '0' && r <= '9') || (r >= 'A' && r <= 'F')) {
					t.Fatalf("ToUcs2Hex(%q) = %q contains non-uppercase-hex char %q", c.in, hex, r)
				}
			}
		})
	}
}

func TestToUcs2HexRecipientExample(t *testing.T) {
	// AT+CMGS unicode path: phone numbers are plain digits/plus, which
	// are themselves basic-alphabet compatible but still get UCS2 hex
	// framing when the message body forces unicode mode.
	got := codec.ToUcs2Hex("1")
	want := "0031"
	if got != want {
		t.Fatalf("ToUcs2Hex(\"1\") = %q, want %q", got, want)
	}
}
