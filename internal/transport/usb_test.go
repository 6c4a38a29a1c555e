package transport

import (
	"strings"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers/testdrv"
	"go.uber.org/zap"

	"github.com/sweeney/midi-bridge/internal/logic"
)

// newLoopbackUSB wires a USB transport to the gomidi test driver, whose out
// port feeds its in port.
func newLoopbackUSB(t *testing.T, name string) *USB {
	t.Helper()
	drv := testdrv.New(name)
	t.Cleanup(func() { drv.Close() })

	ins, err := drv.Ins()
	if err != nil || len(ins) == 0 {
		t.Fatalf("test driver ins: %v (%d ports)", err, len(ins))
	}
	outs, err := drv.Outs()
	if err != nil || len(outs) == 0 {
		t.Fatalf("test driver outs: %v (%d ports)", err, len(outs))
	}

	u, err := newUSB(ins[0], outs[0], DefaultQueueSize, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("newUSB: %v", err)
	}
	t.Cleanup(func() { u.Close() })
	return u
}

func TestUSBReceivesNoteOn(t *testing.T) {
	u := newLoopbackUSB(t, "usb-note-on")

	if err := u.SendProgramChange(1, 2); err != nil {
		t.Fatalf("SendProgramChange: %v", err)
	}
	if err := u.SendNoteOn(1, 61, 110); err != nil {
		t.Fatalf("SendNoteOn: %v", err)
	}

	got := pollUntil(t, u, 1)
	want := logic.Message{Kind: logic.MsgNoteOn, Channel: 1, Note: 61, Velocity: 110}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want [%v]", got, want)
	}

	// The program change went out first and was dropped on the way in.
	time.Sleep(10 * time.Millisecond)
	if more := u.Poll(); len(more) != 0 {
		t.Errorf("expected nothing else queued, got %v", more)
	}
}

func TestUSBReceivesNoteOffOnOtherChannel(t *testing.T) {
	u := newLoopbackUSB(t, "usb-note-off")

	if err := u.SendNoteOff(3, 62, 0); err != nil {
		t.Fatalf("SendNoteOff: %v", err)
	}

	got := pollUntil(t, u, 1)
	want := logic.Message{Kind: logic.MsgNoteOff, Channel: 3, Note: 62}
	if len(got) != 1 || got[0] != want {
		t.Errorf("got %v, want [%v]", got, want)
	}
}

func TestUSBSendRejectsBadChannel(t *testing.T) {
	u := newLoopbackUSB(t, "usb-bad-channel")

	if err := u.SendNoteOn(0, 60, 110); err == nil {
		t.Error("expected error for channel 0")
	}
	if err := u.SendProgramChange(17, 1); err == nil {
		t.Error("expected error for channel 17")
	}
}

func TestUSBName(t *testing.T) {
	u := newLoopbackUSB(t, "usb-name")

	if u.Name() != "usb" {
		t.Errorf("Name: got %q, want usb", u.Name())
	}
}

func TestUSBCloseTwice(t *testing.T) {
	u := newLoopbackUSB(t, "usb-close")

	if err := u.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := u.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestOpenUSBRequiresBothNames(t *testing.T) {
	for _, names := range [][2]string{{"Launchpad", ""}, {"", "Launchpad"}} {
		u, err := OpenUSB(names[0], names[1], DefaultQueueSize, zap.NewNop().Sugar())
		if err == nil {
			u.Close()
			t.Errorf("in=%q out=%q: expected error", names[0], names[1])
			continue
		}
		if !strings.Contains(err.Error(), "both") {
			t.Errorf("in=%q out=%q: unexpected error %v", names[0], names[1], err)
		}
	}
}
