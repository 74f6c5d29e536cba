// Package host adapts an ebiten game to the render loop's frame scheduler
// and resize source.
package host

import (
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/physloop/logging"
	"github.com/milk9111/physloop/loop"
)

type Option func(*Game)

// WithPresenter sets the function that draws the finished frame.
func WithPresenter(fn func(screen *ebiten.Image)) Option {
	return func(g *Game) {
		g.present = fn
	}
}

// WithPixelScale sets the device pixel scale used for the screen buffer.
func WithPixelScale(fn func() float64) Option {
	return func(g *Game) {
		if fn != nil {
			g.pixelScale = fn
		}
	}
}

// Game is an ebiten.Game that runs at most one requested frame callback
// per Update.
type Game struct {
	pending loop.FrameFunc
	token   loop.Token
	next    loop.Token

	subs  map[int]func(width, height int)
	subID int

	width  int
	height int
	scale  float64

	present    func(screen *ebiten.Image)
	pixelScale func() float64

	frames int
	closed bool

	log *slog.Logger
}

func New(opts ...Option) *Game {
	g := &Game{
		subs:       make(map[int]func(int, int)),
		pixelScale: func() float64 { return 1 },
		log:        logging.For("host"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequestFrame schedules fn for the next Update. A second request before
// the first runs replaces it.
func (g *Game) RequestFrame(fn loop.FrameFunc) loop.Token {
	if g.pending != nil {
		g.log.Warn("frame requested while another is pending", "token", g.token)
	}
	g.next++
	g.token = g.next
	g.pending = fn
	return g.token
}

func (g *Game) CancelFrame(token loop.Token) {
	if g.pending != nil && token == g.token {
		g.pending = nil
	}
}

// OnResize subscribes fn to size changes. A known size is delivered
// immediately.
func (g *Game) OnResize(fn func(width, height int)) func() {
	g.subID++
	id := g.subID
	g.subs[id] = fn
	if g.width > 0 && g.height > 0 {
		fn(g.width, g.height)
	}
	return func() { delete(g.subs, id) }
}

// Close ends the game at the next Update.
func (g *Game) Close() {
	g.closed = true
	g.pending = nil
}

// Frames is the number of callbacks run.
func (g *Game) Frames() int {
	return g.frames
}

// DeviceScale reports the current monitor's device scale factor.
func DeviceScale() float64 {
	m := ebiten.Monitor()
	if m == nil {
		return 1
	}
	return m.DeviceScaleFactor()
}

func (g *Game) Update() error {
	if g.closed {
		return ebiten.Termination
	}
	fn := g.pending
	g.pending = nil
	if fn == nil {
		return nil
	}
	g.frames++
	return fn()
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.present != nil {
		g.present(screen)
	}
}

// LayoutF sizes the screen buffer in device pixels and reports logical
// size or pixel scale changes to subscribers.
func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	w, h := int(outsideWidth), int(outsideHeight)
	s := g.pixelScale()
	if w != g.width || h != g.height || s != g.scale {
		g.width, g.height, g.scale = w, h, s
		for _, fn := range g.subs {
			fn(w, h)
		}
	}
	return outsideWidth * s, outsideHeight * s
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.LayoutF(float64(outsideWidth), float64(outsideHeight))
	return int(w), int(h)
}
