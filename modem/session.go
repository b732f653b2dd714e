package modem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onprem-sms/engine/at"
	"github.com/onprem-sms/engine/codec"
	"github.com/onprem-sms/engine/smserr"
)

// Deliver runs one complete AT-command session against the modem
// described by desc: open the port, confirm it is alive, confirm
// network registration, select the right character set for message,
// then submit phone/message via AT+CMGS. It opens and closes its own
// Channel per call; modem sessions are not kept warm between attempts.
func Deliver(ctx context.Context, logger *slog.Logger, desc ModemDescriptor, phone, message string, id int64) error {
	ch, err := OpenChannel(desc)
	if err != nil {
		return err
	}
	defer ch.Close()

	return deliverOverChannel(ctx, logger, ch, desc, phone, message, id)
}

// deliverOverChannel runs the session state machine against an
// already-open Channel. Split out from Deliver so tests can drive it
// with a fake or mock Channel instead of a real serial port.
func deliverOverChannel(ctx context.Context, logger *slog.Logger, ch Channel, desc ModemDescriptor, phone, message string, id int64) error {
	log := logger.With("carrier", desc.ID, "attempt_id", id)

	ch.ClearBuffers()
	if err := sleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}

	// Warmup: a stray escape flushes any pending text-entry mode left
	// over from a previous, interrupted attempt.
	ch.WriteLine("\x1b")
	if err := sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	ch.DrainResponse()

	if err := aliveCheck(ctx, ch); err != nil {
		return fmt.Errorf("%w: %s: %v", smserr.ErrModemUnresponsive, desc.ID, err)
	}

	if err := registrationCheck(ctx, ch); err != nil {
		return fmt.Errorf("%w: %s: %v", smserr.ErrModemUnregistered, desc.ID, err)
	}

	useUnicode := !codec.IsBasicGsmCompatible(message)
	if err := selectCharset(ctx, ch, useUnicode); err != nil {
		return err
	}

	ch.WriteLine(at.CmdSetTextMode)
	if err := sleep(ctx, 300*time.Millisecond); err != nil {
		return err
	}
	ch.DrainResponse()

	target := phone
	if useUnicode {
		target = codec.ToUcs2Hex(phone)
	}
	ch.WriteLine(fmt.Sprintf(`%s="%s"`, at.CmdSendSMS, target))
	if err := sleep(ctx, 1500*time.Millisecond); err != nil {
		return err
	}
	resp := ch.DrainResponse()
	if !strings.Contains(resp, at.Prompt) {
		log.Warn("no SMS prompt seen, proceeding anyway")
	}

	content := message
	if useUnicode {
		content = codec.ToUcs2Hex(message)
	}
	ch.WriteLine(content + at.CtrlZ)

	if err := sleep(ctx, 5*time.Second); err != nil {
		return err
	}
	final := ch.DrainResponse()

	switch {
	case strings.Contains(final, at.OK):
		return nil
	case strings.Contains(final, at.ERROR):
		return fmt.Errorf("%w: %s: %s", smserr.ErrModemProtocol, desc.ID, strings.TrimSpace(final))
	case final == "":
		log.Warn("no final response from modem, assuming sent")
		return nil
	default:
		log.Info("unrecognized final response, treating as sent", "response", strings.TrimSpace(final))
		return nil
	}
}

// aliveCheck confirms the modem answers plain "AT" with OK, retrying a
// few times before falling back to ATE0 in case echo mode is wedging
// the response.
func aliveCheck(ctx context.Context, ch Channel) error {
	for i := 0; i < 3; i++ {
		ch.WriteLine(at.CmdAt)
		if err := sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
		if strings.Contains(ch.DrainResponse(), at.OK) {
			return nil
		}
	}

	ch.WriteLine(at.CmdEchoOff)
	if err := sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if strings.Contains(ch.DrainResponse(), at.OK) {
		return nil
	}
	return fmt.Errorf("no OK to AT or ATE0 after retries")
}

// registrationCheck tries CREG, CEREG, and CGREG in turn (different
// modems report registration on different subsets depending on radio
// generation), treating a ",1" (home) or ",5" (roaming) status as
// success. The whole cycle repeats up to five times with a pause
// between rounds to let a modem mid-attach catch up.
func registrationCheck(ctx context.Context, ch Channel) error {
	cmds := []string{at.CmdRegistrationCREG, at.CmdRegistrationCEREG, at.CmdRegistrationCGREG}
	for round := 0; round < 5; round++ {
		for _, cmd := range cmds {
			ch.WriteLine(cmd)
			if err := sleep(ctx, 800*time.Millisecond); err != nil {
				return err
			}
			resp := ch.DrainResponse()
			if strings.Contains(resp, ",1") || strings.Contains(resp, ",5") {
				return nil
			}
		}
		if err := sleep(ctx, 1500*time.Millisecond); err != nil {
			return err
		}
	}
	return fmt.Errorf("no registration after 5 rounds")
}

func selectCharset(ctx context.Context, ch Channel, useUnicode bool) error {
	charsetCmd, paramsCmd := at.CmdCharsetGSM, at.CmdTextModeParamsGSM
	if useUnicode {
		charsetCmd, paramsCmd = at.CmdCharsetUCS2, at.CmdTextModeParamsUCS2
	}

	ch.WriteLine(charsetCmd)
	if err := sleep(ctx, 300*time.Millisecond); err != nil {
		return err
	}
	ch.DrainResponse()

	ch.WriteLine(paramsCmd)
	if err := sleep(ctx, 300*time.Millisecond); err != nil {
		return err
	}
	ch.DrainResponse()
	return nil
}

// sleep blocks for d or returns ctx.Err() if ctx is canceled first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
