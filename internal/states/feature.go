package states

import (
	"context"

	"github.com/Faultbox/gamey/internal/scene"
)

// View is the visual half of a feature.
type View interface {
	// Asset is the container the feature attaches to the stage.
	Asset() *scene.Container

	// Liquify repositions components after a canvas resize.
	Liquify()
}

// Feature is the manager or mediator that owns a state's content.
// Enter and Exit may block until animations settle; Destroy releases
// references and must not block.
type Feature interface {
	View() View
	Enter(ctx context.Context) error
	Exit(ctx context.Context) error
	Destroy()
}

// Liquifier is implemented by mediators that handle resizes themselves
// instead of delegating to their view.
type Liquifier interface {
	Liquify()
}

// Pausable is implemented by features that stay alive across a pause.
// Pause runs in place of Exit when leaving for the paused state, Resume in
// place of a rebuild when coming back.
type Pausable interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Factory builds the view and feature for one state. H is the application
// handle passed to both builders.
type Factory[H any] struct {
	View    func(host H) View
	Feature func(view View, host H, data any) Feature
}

// Factories maps every managed state to its builders.
type Factories[H any] map[State]Factory[H]

// Validate checks that every managed state has both builders.
func (f Factories[H]) Validate() error {
	for _, s := range Managed {
		fac, ok := f[s]
		if !ok || fac.View == nil || fac.Feature == nil {
			return missingFactory(s)
		}
	}
	return nil
}
