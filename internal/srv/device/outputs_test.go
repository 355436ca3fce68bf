package device

import (
	"errors"
	"testing"
)

var errBroken = errors.New("broken")

type fakeSink struct {
	path      string
	openErr   error
	failAfter int // write error once this many bytes were taken, -1 never
	chunk     int // maximum bytes taken per Write call, 0 unlimited

	opens  int
	frames [][]byte
	buf    []byte
}

func (s *fakeSink) Path() string { return s.path }

func (s *fakeSink) Open() error {
	s.opens++
	return s.openErr
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) Write(p []byte) (int, error) {
	if s.failAfter >= 0 && len(s.buf) >= s.failAfter {
		return -1, errBroken
	}
	n := len(p)
	if s.chunk > 0 && n > s.chunk {
		n = s.chunk
	}
	s.buf = append(s.buf, p[:n]...)
	return n, nil
}

func (s *fakeSink) endFrame() {
	s.frames = append(s.frames, s.buf)
	s.buf = nil
}

func TestOutputs_NoDeviceIsFatal(t *testing.T) {
	d := NewOutputs([]FrameSink{
		&fakeSink{path: "a", openErr: errBroken, failAfter: -1},
		&fakeSink{path: "b", openErr: errBroken, failAfter: -1},
	})
	if err := d.Start(); !errors.Is(err, ErrNoOutputDevice) {
		t.Fatalf("expected ErrNoOutputDevice, got %v", err)
	}
}

func TestOutputs_ExcludesDevicesFailingToOpen(t *testing.T) {
	bad := &fakeSink{path: "bad", openErr: errBroken, failAfter: -1}
	good := &fakeSink{path: "good", failAfter: -1}
	d := NewOutputs([]FrameSink{bad, good})
	if err := d.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Reset()
	if err := d.Write([]byte("frame")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(good.buf) != "frame" {
		t.Errorf("good sink got %q", good.buf)
	}
	if len(bad.buf) != 0 || bad.opens != 1 {
		t.Errorf("excluded sink used: %d bytes, %d opens", len(bad.buf), bad.opens)
	}
	if d.Active() != 1 {
		t.Errorf("Active() = %d", d.Active())
	}
}

func TestOutputs_PartialWritesCompleteTheFrame(t *testing.T) {
	s := &fakeSink{path: "slow", failAfter: -1, chunk: 3}
	d := NewOutputs([]FrameSink{s})
	if err := d.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.Reset()
	if err := d.Write([]byte("0123456789")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(s.buf) != "0123456789" {
		t.Fatalf("sink got %q", s.buf)
	}
	if st := d.Status()[0]; st.Written != 10 {
		t.Fatalf("written = %d", st.Written)
	}
}

func TestOutputs_FailureIsolatedUntilReset(t *testing.T) {
	flaky := &fakeSink{path: "flaky", failAfter: 4, chunk: 2}
	steady := &fakeSink{path: "steady", failAfter: -1}
	d := NewOutputs([]FrameSink{flaky, steady})
	if err := d.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := []byte("abcdefgh")
	d.Reset()
	err := d.Write(frame)
	var writeErr *DeviceWriteError
	if !errors.As(err, &writeErr) || writeErr.Path != "flaky" || writeErr.Written != 4 {
		t.Fatalf("expected DeviceWriteError for flaky after 4 bytes, got %v", err)
	}
	if string(steady.buf) != "abcdefgh" {
		t.Fatalf("steady sink got %q", steady.buf)
	}

	// Same frame again: the failed sink is skipped.
	if err := d.Write(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flaky.buf) != 4 {
		t.Fatalf("failed sink written again: %q", flaky.buf)
	}
	if st := d.Status(); !st[0].Failed || st[1].Failed {
		t.Fatalf("status = %+v", st)
	}

	// Next cycle reopens it.
	flaky.endFrame()
	steady.endFrame()
	flaky.failAfter = -1
	d.Reset()
	if flaky.opens != 2 {
		t.Fatalf("flaky opened %d times, want 2", flaky.opens)
	}
	if err := d.Write(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(flaky.buf) != "abcdefgh" {
		t.Fatalf("reopened sink got %q", flaky.buf)
	}
}

func TestOutputs_ReopenFailureKeepsDeviceFailed(t *testing.T) {
	flaky := &fakeSink{path: "flaky", failAfter: 0}
	d := NewOutputs([]FrameSink{flaky})
	if err := d.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.Reset()
	if err := d.Write([]byte("x")); err == nil {
		t.Fatal("expected write error")
	}

	flaky.openErr = errBroken
	d.Reset()
	if d.Active() != 0 {
		t.Fatal("device active after failed reopen")
	}

	flaky.openErr = nil
	flaky.failAfter = -1
	d.Reset()
	if d.Active() != 1 {
		t.Fatal("device not recovered")
	}
}
