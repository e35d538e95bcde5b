package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/gamey/internal/clock"
	"github.com/Faultbox/gamey/internal/frame"
	"github.com/Faultbox/gamey/internal/scene"
	"github.com/Faultbox/gamey/internal/states"
)

type testGame struct {
	view   *scene.Container
	stage  *scene.Stage
	ticker *clock.Ticker
	reg    *frame.Registry
	ticks  int
}

func newTestGame() *testGame {
	g := &testGame{
		view:   scene.NewContainer("app"),
		stage:  scene.NewStage(200, 100, zap.NewNop()),
		ticker: clock.New(60),
		reg:    frame.NewRegistry(),
	}
	g.stage.Root.AddChild(g.view)
	return g
}

func (g *testGame) View() *scene.Container { return g.view }
func (g *testGame) Stage() *scene.Stage { return g.stage }
func (g *testGame) Clock() *clock.Ticker { return g.ticker }
func (g *testGame) AddUpdateable(u frame.Updateable) { g.reg.Add(u) }
func (g *testGame) RemoveUpdateable(u frame.Updateable) { g.reg.Remove(u) }
func (g *testGame) HandleTick(clock.Tick) { g.ticks++ }
func (g *testGame) Debug() bool { return true }
func (g *testGame) Logger() *zap.Logger { return zap.NewNop() }

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{"nil", nil, "lobby"},
		{"string", "level one", "level one"},
		{"empty string", "", "lobby"},
		{"string map", map[string]string{"name": "arena"}, "arena"},
		{"any map", map[string]any{"name": "arena"}, "arena"},
		{"any map wrong type", map[string]any{"name": 7}, "lobby"},
		{"unrelated", 42, "lobby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.data, "lobby"))
		})
	}
}

func TestFactoriesCoverEveryState(t *testing.T) {
	require.NoError(t, Factories().Validate())
}

func TestTitleManagerLifecycle(t *testing.T) {
	g := newTestGame()
	fac := Factories()[states.Paused]

	view := fac.View(g)
	f := fac.Feature(view, g, map[string]string{"name": "take five"})
	require.NoError(t, f.Enter(context.Background()))

	tv := view.(*TitleView)
	assert.Equal(t, "TAKE FIVE", tv.Text())
	assert.True(t, g.view.Contains(tv.Asset()))
	assert.Equal(t, 100.0, tv.text.X, "centred on a 200px canvas")

	require.NoError(t, f.Exit(context.Background()))
	assert.True(t, g.view.Contains(tv.Asset()), "exit leaves the asset for destroy")

	f.Destroy()
	assert.False(t, g.view.Contains(tv.Asset()))
}

func TestTitleViewLiquify(t *testing.T) {
	g := newTestGame()
	v := NewTitleView(g)
	g.view.AddChild(v.Asset())

	g.stage.Resize(640, 480)
	v.Liquify()
	assert.Equal(t, 320.0, v.text.X)
}

func TestPlayingEnterExit(t *testing.T) {
	g := newTestGame()
	view := NewPlayingView(g)
	p := NewPlaying(view, g, nil).(*Playing)

	require.NoError(t, p.Enter(context.Background()))
	assert.Equal(t, 2, g.reg.Count())
	assert.True(t, p.Ticking())
	assert.True(t, g.ticker.Has(clock.TickEvent))
	assert.True(t, g.view.Contains(view.Asset()))

	g.ticker.Step(time.Now())
	assert.Equal(t, 1, g.ticks)

	require.NoError(t, p.Exit(context.Background()))
	assert.Zero(t, g.reg.Count())
	assert.False(t, p.Ticking())
	assert.False(t, g.ticker.Has(clock.TickEvent))
	assert.Equal(t, 1.0, view.Heading().Alpha)

	p.Destroy()
	assert.False(t, g.view.Contains(view.Asset()))
}

func TestPlayingPauseResume(t *testing.T) {
	g := newTestGame()
	p := NewPlaying(NewPlayingView(g), g, nil).(*Playing)
	require.NoError(t, p.Enter(context.Background()))

	require.NoError(t, p.Pause(context.Background()))
	assert.False(t, p.Ticking())
	g.ticker.Step(time.Now())
	assert.Zero(t, g.ticks)
	assert.Equal(t, 2, g.reg.Count(), "pause keeps updateables registered")

	require.NoError(t, p.Pause(context.Background()))

	require.NoError(t, p.Resume(context.Background()))
	require.NoError(t, p.Resume(context.Background()))
	g.ticker.Step(time.Now())
	assert.Equal(t, 1, g.ticks, "a double resume subscribes once")
}

func TestMoverWraps(t *testing.T) {
	stage := scene.NewStage(20, 20, zap.NewNop())
	c := scene.NewCircle(5, "#fff")
	c.X = 25
	m := &mover{circle: c, stage: stage}

	m.Update()
	assert.Equal(t, -5.0, c.X)

	m.Update()
	assert.Equal(t, -4.0, c.X)
}

func TestBlinkCycles(t *testing.T) {
	txt := scene.NewText("x", "", "", "")
	b := &blink{target: txt, period: 4}

	b.Update()
	assert.InDelta(t, 0.5, txt.Alpha, 1e-9)
	b.Update()
	assert.InDelta(t, 0.0, txt.Alpha, 1e-9)
	b.Update()
	b.Update()
	assert.InDelta(t, 1.0, txt.Alpha, 1e-9)

	b.Update()
	b.reset()
	assert.Equal(t, 1.0, txt.Alpha)
	assert.Zero(t, b.frame)
}
