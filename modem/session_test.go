package modem

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	gomock "go.uber.org/mock/gomock"

	"github.com/onprem-sms/engine/smserr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func successfulScript() *fakeChannel {
	return newFakeChannel(
		"",               // drain after warmup escape
		"AT\r\nOK\r\n",   // alive check
		"+CREG: 0,1\r\n", // registration check
		"OK\r\n",         // charset select
		"OK\r\n",         // CSMP params
		"OK\r\n",         // text mode
		"> \r\n",         // CMGS prompt
		"OK\r\n",         // final status
	)
}

func TestDeliverOverChannelSuccessGSM7(t *testing.T) {
	ch := successfulScript()
	desc := ModemDescriptor{ID: "modem-a", Port: "/dev/ttyUSB0"}

	err := deliverOverChannel(context.Background(), discardLogger(), ch, desc, "15551234567", "hello world", 1)
	if err != nil {
		t.Fatalf("deliverOverChannel: %v", err)
	}

	joined := strings.Join(ch.written, "|")
	if !strings.Contains(joined, `AT+CSCS="GSM"`) {
		t.Errorf("expected GSM charset selection, got writes: %v", ch.written)
	}
	if !strings.Contains(joined, `AT+CMGS="15551234567"`) {
		t.Errorf("expected plain-text recipient in CMGS, got writes: %v", ch.written)
	}
}

func TestDeliverOverChannelSuccessUnicode(t *testing.T) {
	ch := successfulScript()
	desc := ModemDescriptor{ID: "modem-a", Port: "/dev/ttyUSB0"}

	err := deliverOverChannel(context.Background(), discardLogger(), ch, desc, "15551234567", "héllo 🎉", 2)
	if err != nil {
		t.Fatalf("deliverOverChannel: %v", err)
	}

	joined := strings.Join(ch.written, "|")
	if !strings.Contains(joined, `AT+CSCS="UCS2"`) {
		t.Errorf("expected UCS2 charset selection for unicode message, got writes: %v", ch.written)
	}
	if !strings.Contains(joined, "AT+CSMP=17,167,0,8") {
		t.Errorf("expected unicode CSMP params, got writes: %v", ch.written)
	}
}

func TestDeliverOverChannelUnresponsiveModem(t *testing.T) {
	ch := newFakeChannel(
		"",       // warmup
		"",       // AT retry 1
		"",       // AT retry 2
		"",       // AT retry 3
		"ERROR\r\n", // ATE0 fallback
	)
	desc := ModemDescriptor{ID: "modem-a", Port: "/dev/ttyUSB0"}

	err := deliverOverChannel(context.Background(), discardLogger(), ch, desc, "1", "hi", 3)
	if err == nil {
		t.Fatal("expected error for unresponsive modem")
	}
	if !strings.Contains(err.Error(), smserr.ErrModemUnresponsive.Error()) {
		t.Errorf("error = %v, want wrapping ErrModemUnresponsive", err)
	}
}

func TestDeliverOverChannelUnregisteredModem(t *testing.T) {
	responses := []string{"", "AT\r\nOK\r\n"}
	// 5 rounds x 3 registration commands, all reporting not-registered.
	for i := 0; i < 15; i++ {
		responses = append(responses, "+CREG: 0,2\r\n")
	}
	ch := newFakeChannel(responses...)
	desc := ModemDescriptor{ID: "modem-a", Port: "/dev/ttyUSB0"}

	err := deliverOverChannel(context.Background(), discardLogger(), ch, desc, "1", "hi", 4)
	if err == nil {
		t.Fatal("expected error for unregistered modem")
	}
	if !strings.Contains(err.Error(), smserr.ErrModemUnregistered.Error()) {
		t.Errorf("error = %v, want wrapping ErrModemUnregistered", err)
	}
}

func TestDeliverOverChannelModemError(t *testing.T) {
	ch := newFakeChannel(
		"",
		"AT\r\nOK\r\n",
		"+CREG: 0,1\r\n",
		"OK\r\n",
		"OK\r\n",
		"OK\r\n",
		"> \r\n",
		"+CMS ERROR: 500\r\nERROR\r\n",
	)
	desc := ModemDescriptor{ID: "modem-a", Port: "/dev/ttyUSB0"}

	err := deliverOverChannel(context.Background(), discardLogger(), ch, desc, "1", "hi", 5)
	if err == nil {
		t.Fatal("expected error on modem ERROR result")
	}
	if !strings.Contains(err.Error(), smserr.ErrModemProtocol.Error()) {
		t.Errorf("error = %v, want wrapping ErrModemProtocol", err)
	}
}

func TestDeliverOverChannelEmptyFinalResponseAssumedSent(t *testing.T) {
	ch := newFakeChannel(
		"",
		"AT\r\nOK\r\n",
		"+CREG: 0,1\r\n",
		"OK\r\n",
		"OK\r\n",
		"OK\r\n",
		"> \r\n",
		"",
	)
	desc := ModemDescriptor{ID: "modem-a", Port: "/dev/ttyUSB0"}

	if err := deliverOverChannel(context.Background(), discardLogger(), ch, desc, "1", "hi", 6); err != nil {
		t.Fatalf("deliverOverChannel with empty final response: %v", err)
	}
}

func TestDeliverOverChannelWithMockChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockChannel(ctrl)

	gomock.InOrder(
		mock.EXPECT().ClearBuffers(),
		mock.EXPECT().WriteLine("\x1b").Return(nil),
		mock.EXPECT().DrainResponse().Return(""),
		mock.EXPECT().WriteLine("AT").Return(nil),
		mock.EXPECT().DrainResponse().Return("AT\r\nOK\r\n"),
		mock.EXPECT().WriteLine("AT+CREG?").Return(nil),
		mock.EXPECT().DrainResponse().Return("+CREG: 0,1\r\n"),
		mock.EXPECT().WriteLine(`AT+CSCS="GSM"`).Return(nil),
		mock.EXPECT().DrainResponse().Return("OK\r\n"),
		mock.EXPECT().WriteLine("AT+CSMP=17,167,0,0").Return(nil),
		mock.EXPECT().DrainResponse().Return("OK\r\n"),
		mock.EXPECT().WriteLine("AT+CMGF=1").Return(nil),
		mock.EXPECT().DrainResponse().Return("OK\r\n"),
		mock.EXPECT().WriteLine(`AT+CMGS="1"`).Return(nil),
		mock.EXPECT().DrainResponse().Return("> \r\n"),
		mock.EXPECT().WriteLine("hi"+"\x1A").Return(nil),
		mock.EXPECT().DrainResponse().Return("OK\r\n"),
	)

	desc := ModemDescriptor{ID: "modem-mock", Port: "/dev/ttyUSB0"}
	if err := deliverOverChannel(context.Background(), discardLogger(), mock, desc, "1", "hi", 7); err != nil {
		t.Fatalf("deliverOverChannel with MockChannel: %v", err)
	}
}
