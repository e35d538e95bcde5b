package features

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/gamey/internal/clock"
	"github.com/Faultbox/gamey/internal/scene"
	"github.com/Faultbox/gamey/internal/states"
)

// PlayingView shows the heading and a ball crossing the canvas.
type PlayingView struct {
	game   Game
	asset  *scene.Container
	text   *scene.Text
	Circle *scene.Circle
}

// NewPlayingView builds the playing view.
func NewPlayingView(g Game) *PlayingView {
	v := &PlayingView{
		game:   g,
		asset:  scene.NewContainer("playing"),
		text:   scene.NewText("INCEPT", "bold 60px Arial", "#CCC", "center"),
		Circle: scene.NewCircle(10, "#CCC"),
	}
	v.asset.AddChild(v.text, v.Circle)

	v.asset.OnAdded(func() {
		if g.Debug() {
			g.Logger().Debug("playing view added to stage")
		}
		v.Render()
	})
	return v
}

func (v *PlayingView) Asset() *scene.Container { return v.asset }

// Render lays the heading out centred with the ball underneath.
func (v *PlayingView) Render() {
	w, _ := v.game.Stage().Size()
	v.text.X = float64(w) / 2
	v.text.Y = 60
	v.Circle.Y = v.text.Y + 60 + v.Circle.Radius + 10
}

func (v *PlayingView) Liquify() {
	v.Render()
}

func (v *PlayingView) SetText(text string) {
	v.text.Text = text
}

// Heading exposes the label node so the blink tween can drive its alpha.
func (v *PlayingView) Heading() *scene.Text {
	return v.text
}

// mover walks the ball right and wraps it at the canvas edge.
type mover struct {
	circle *scene.Circle
	stage  *scene.Stage
}

func (m *mover) Update() {
	w, _ := m.stage.Size()
	m.circle.X++
	if m.circle.X-m.circle.Radius > float64(w) {
		m.circle.X = -m.circle.Radius
	}
}

// blink pulses a node's alpha, one full cycle every period frames.
type blink struct {
	target *scene.Text
	period int
	frame  int
}

func (b *blink) Update() {
	b.frame = (b.frame + 1) % b.period
	phase := float64(b.frame) / float64(b.period)
	b.target.Alpha = 0.5 + 0.5*math.Cos(2*math.Pi*phase)
}

func (b *blink) reset() {
	b.frame = 0
	b.target.Alpha = 1
}

// Playing is the mediator for the playing state. It owns the frame clock
// subscription while active and survives a pause.
type Playing struct {
	view  *PlayingView
	game  Game
	mover *mover
	blink *blink

	mu      sync.Mutex
	token   clock.Token
	ticking bool
}

// NewPlaying creates the playing mediator.
func NewPlaying(view *PlayingView, g Game, _ any) states.Feature {
	return &Playing{
		view:  view,
		game:  g,
		mover: &mover{circle: view.Circle, stage: g.Stage()},
		blink: &blink{target: view.Heading(), period: 120},
	}
}

func (p *Playing) View() states.View { return p.view }

func (p *Playing) Enter(context.Context) error {
	p.view.SetText("playing")

	p.game.AddUpdateable(p.mover)
	p.game.AddUpdateable(p.blink)
	p.game.View().AddChild(p.view.Asset())

	p.attach()
	return nil
}

func (p *Playing) Exit(context.Context) error {
	p.detach()

	p.game.RemoveUpdateable(p.blink)
	p.game.RemoveUpdateable(p.mover)
	p.blink.reset()
	return nil
}

func (p *Playing) Destroy() {
	p.game.View().RemoveChild(p.view.Asset())
}

// Pause stops the frame clock feeding this game; the scene stays mounted.
func (p *Playing) Pause(context.Context) error {
	p.detach()
	return nil
}

// Resume reattaches to the frame clock.
func (p *Playing) Resume(context.Context) error {
	p.attach()
	return nil
}

// Liquify delegates to the view.
func (p *Playing) Liquify() {
	p.view.Liquify()
}

// Ticking reports whether the mediator is subscribed to the frame clock.
func (p *Playing) Ticking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticking
}

func (p *Playing) attach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticking {
		return
	}
	p.token = p.game.Clock().On(clock.TickEvent, p.game.HandleTick)
	p.ticking = true
	p.game.Logger().Debug("frame clock attached", zap.Uint64("token", uint64(p.token)))
}

func (p *Playing) detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ticking {
		return
	}
	p.game.Clock().Off(clock.TickEvent, p.token)
	p.ticking = false
	p.game.Logger().Debug("frame clock detached", zap.Uint64("token", uint64(p.token)))
}
