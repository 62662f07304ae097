package capture

import (
	"testing"

	"github.com/olivier-w/panelviz/internal/router"
	"github.com/olivier-w/panelviz/internal/util"
)

func TestParseBinding(t *testing.T) {
	b, err := ParseBinding("bottom-left = USB Audio CODEC")
	if err != nil {
		t.Fatalf("ParseBinding() error = %v", err)
	}
	if b.Slot != router.BottomLeft || b.Device != "USB Audio CODEC" {
		t.Fatalf("unexpected binding %+v", b)
	}
	if b.String() != "bottom-left=USB Audio CODEC" {
		t.Fatalf("String() = %q", b.String())
	}
	for _, bad := range []string{"top", "sideways=mic"} {
		if _, err := ParseBinding(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := []Binding{{Slot: router.Top}, {Slot: router.BottomLeft}, {Slot: router.BottomRight}}
	if err := Validate(ok); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := Validate([]Binding{{Slot: router.Main}}); err == nil {
		t.Fatal("expected the main slot to be rejected")
	}
	if err := Validate([]Binding{{Slot: router.Top}, {Slot: router.Top}}); err == nil {
		t.Fatal("expected duplicate slots to be rejected")
	}
	if err := Validate(append(ok, Binding{Slot: router.Top})); err == nil {
		t.Fatal("expected more than three bindings to be rejected")
	}
}

func TestStartWithoutBindingsOpensNothing(t *testing.T) {
	m, err := Start(nil, router.New(48000), util.Discard())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(m.Slots()) != 0 {
		t.Fatalf("expected no streams, got %v", m.Slots())
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestStreamMixesToMonoAndFeedsSlot(t *testing.T) {
	r := router.New(48000)
	s := &stream{slot: router.Top, channels: 2, sink: r}
	s.process([]float32{0.5, 0.25, -0.5, -0.25})
	if len(s.mono) != 2 || s.mono[0] != 0.375 || s.mono[1] != -0.375 {
		t.Fatalf("unexpected mono block %v", s.mono)
	}
	if !r.HasDedicatedInput(router.Top) {
		t.Fatal("expected an audible block to mark the slot dedicated")
	}

	s.process([]float32{0, 0, 0, 0})
	if r.HasDedicatedInput(router.Top) {
		t.Fatal("expected silence to fall back to the main bus")
	}
	if got := mixdown(nil, []float32{1, 2}, 1); len(got) != 2 || got[1] != 2 {
		t.Fatalf("expected mono input to pass through, got %v", got)
	}
}

func stubHost(t *testing.T) (inits, terms *int) {
	t.Helper()
	inits, terms = new(int), new(int)
	origInit, origTerm := paInitialize, paTerminate
	paInitialize = func() error { *inits++; return nil }
	paTerminate = func() error { *terms++; return nil }
	t.Cleanup(func() { paInitialize, paTerminate = origInit, origTerm })
	return inits, terms
}

func TestHostComesUpOnceAndDownWithLastUser(t *testing.T) {
	inits, terms := stubHost(t)

	if err := acquireHost(); err != nil {
		t.Fatal(err)
	}
	if err := acquireHost(); err != nil {
		t.Fatal(err)
	}
	releaseHost()
	if *inits != 1 || *terms != 0 {
		t.Fatalf("expected one init and no terminate yet, got %d/%d", *inits, *terms)
	}
	releaseHost()
	releaseHost()
	if *terms != 1 {
		t.Fatalf("expected a single terminate, got %d", *terms)
	}
}

func TestManagerCloseReleasesHost(t *testing.T) {
	_, terms := stubHost(t)
	if err := acquireHost(); err != nil {
		t.Fatal(err)
	}
	m := &Manager{log: util.Discard(), sink: router.New(48000), held: true}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if *terms != 1 {
		t.Fatalf("expected Close to release the host once, got %d", *terms)
	}
}
