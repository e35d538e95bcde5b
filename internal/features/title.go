package features

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/gamey/internal/scene"
	"github.com/Faultbox/gamey/internal/states"
)

// TitleView shows a single centred heading.
type TitleView struct {
	game  Game
	asset *scene.Container
	text  *scene.Text
}

// NewTitleView builds the view. It positions itself once added to the stage.
func NewTitleView(g Game) *TitleView {
	v := &TitleView{
		game:  g,
		asset: scene.NewContainer("title"),
		text:  scene.NewText("INCEPT", "bold 60px Arial", "#CCC", "center"),
	}
	v.asset.AddChild(v.text)

	v.asset.OnAdded(func() {
		if g.Debug() {
			g.Logger().Debug("view added to stage", zap.String("text", v.text.Text))
		}
		v.Render()
	})
	return v
}

// Asset returns the view's root container.
func (v *TitleView) Asset() *scene.Container { return v.asset }

// Render positions components relative to the canvas.
func (v *TitleView) Render() {
	w, _ := v.game.Stage().Size()
	v.text.X = float64(w) / 2
	v.text.Y = 10
}

// Liquify re-centres the heading after a resize.
func (v *TitleView) Liquify() {
	v.Render()
}

// SetText changes the heading.
func (v *TitleView) SetText(text string) {
	v.text.Text = strings.ToUpper(text)
}

// Text returns the heading.
func (v *TitleView) Text() string {
	return v.text.Text
}

// Manager is the general manager used by states that only show a title.
type Manager struct {
	view  *TitleView
	game  Game
	label string
}

// NewManager creates a manager showing label.
func NewManager(view *TitleView, g Game, label string) *Manager {
	return &Manager{view: view, game: g, label: label}
}

func (m *Manager) View() states.View { return m.view }

func (m *Manager) Enter(context.Context) error {
	m.view.SetText(m.label)
	m.game.View().AddChild(m.view.Asset())
	return nil
}

func (m *Manager) Exit(context.Context) error {
	return nil
}

func (m *Manager) Destroy() {
	m.game.View().RemoveChild(m.view.Asset())
}
