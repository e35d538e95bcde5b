// Package features holds the views and managers that own each run-state's
// on-screen content.
package features

import (
	"go.uber.org/zap"

	"github.com/Faultbox/gamey/internal/clock"
	"github.com/Faultbox/gamey/internal/frame"
	"github.com/Faultbox/gamey/internal/scene"
	"github.com/Faultbox/gamey/internal/states"
)

// Game is the application surface features are built against.
type Game interface {
	View() *scene.Container
	Stage() *scene.Stage
	Clock() *clock.Ticker
	AddUpdateable(u frame.Updateable)
	RemoveUpdateable(u frame.Updateable)
	HandleTick(t clock.Tick)
	Debug() bool
	Logger() *zap.Logger
}

// Bind adapts a typed view builder and feature builder to a factory entry.
func Bind[V states.View](view func(Game) V, feature func(V, Game, any) states.Feature) states.Factory[Game] {
	return states.Factory[Game]{
		View: func(g Game) states.View {
			return view(g)
		},
		Feature: func(v states.View, g Game, data any) states.Feature {
			return feature(v.(V), g, data)
		},
	}
}

// Factories returns the builders for every run-state.
func Factories() states.Factories[Game] {
	return states.Factories[Game]{
		states.Lobby:        Bind(NewTitleView, titled(states.Lobby)),
		states.Initializing: Bind(NewTitleView, titled(states.Initializing)),
		states.Playing:      Bind(NewPlayingView, NewPlaying),
		states.Paused:       Bind(NewTitleView, titled(states.Paused)),
		states.End:          Bind(NewTitleView, titled(states.End)),
	}
}

func titled(s states.State) func(*TitleView, Game, any) states.Feature {
	return func(v *TitleView, g Game, data any) states.Feature {
		return NewManager(v, g, Label(data, s.String()))
	}
}

// Label picks the display name carried by a transition payload, falling
// back to def.
func Label(data any, def string) string {
	switch d := data.(type) {
	case string:
		if d != "" {
			return d
		}
	case map[string]string:
		if name := d["name"]; name != "" {
			return name
		}
	case map[string]any:
		if name, ok := d["name"].(string); ok && name != "" {
			return name
		}
	}
	return def
}
