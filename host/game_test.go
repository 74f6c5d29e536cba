package host

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/physloop/loop"
)

var (
	_ loop.Scheduler    = (*Game)(nil)
	_ loop.ResizeSource = (*Game)(nil)
	_ ebiten.Game       = (*Game)(nil)
)

func TestUpdateRunsOnePendingFrame(t *testing.T) {
	g := New()
	runs := 0
	g.RequestFrame(func() error {
		runs++
		return nil
	})
	for i := 0; i < 3; i++ {
		if err := g.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if runs != 1 || g.Frames() != 1 {
		t.Fatalf("runs = %d, frames = %d", runs, g.Frames())
	}
}

func TestCancelFrame(t *testing.T) {
	g := New()
	ran := false
	tok := g.RequestFrame(func() error {
		ran = true
		return nil
	})
	g.CancelFrame(tok + 1)
	g.CancelFrame(tok)
	_ = g.Update()
	if ran {
		t.Fatalf("cancelled frame ran")
	}
}

func TestUpdateReturnsFrameError(t *testing.T) {
	boom := errors.New("boom")
	g := New()
	g.RequestFrame(func() error { return boom })
	if err := g.Update(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestCloseTerminates(t *testing.T) {
	g := New()
	g.RequestFrame(func() error {
		t.Fatalf("frame ran after Close")
		return nil
	})
	g.Close()
	if err := g.Update(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("expected ebiten.Termination, got %v", err)
	}
}

func TestLayoutNotifiesOnChange(t *testing.T) {
	g := New(WithPixelScale(func() float64 { return 2 }))
	var sizes [][2]int
	cancel := g.OnResize(func(w, h int) { sizes = append(sizes, [2]int{w, h}) })

	w, h := g.Layout(640, 480)
	g.Layout(640, 480)
	g.Layout(800, 600)
	if w != 1280 || h != 960 {
		t.Fatalf("screen = %dx%d, want device pixels", w, h)
	}
	if len(sizes) != 2 || sizes[1] != [2]int{800, 600} {
		t.Fatalf("sizes = %v", sizes)
	}

	// late subscribers get the current size straight away
	var late [2]int
	g.OnResize(func(w, h int) { late = [2]int{w, h} })
	if late != [2]int{800, 600} {
		t.Fatalf("late subscriber saw %v", late)
	}

	cancel()
	g.Layout(320, 240)
	if len(sizes) != 2 {
		t.Fatalf("cancelled subscriber notified")
	}
}

func TestLayoutNotifiesOnScaleChange(t *testing.T) {
	scale := 1.0
	g := New(WithPixelScale(func() float64 { return scale }))
	notified := 0
	g.OnResize(func(int, int) { notified++ })

	g.Layout(640, 480)
	g.Layout(640, 480)
	scale = 2
	w, _ := g.Layout(640, 480)
	if notified != 2 {
		t.Fatalf("notified %d times, want 2", notified)
	}
	if w != 1280 {
		t.Fatalf("screen width = %d after scale change", w)
	}
}
