package frame

import "time"

// Redrawer repaints the scene. The stage implements it.
type Redrawer interface {
	Redraw()
}

// FrameObserver is told how long each frame took and how many updateables ran.
type FrameObserver interface {
	ObserveFrame(elapsed time.Duration, updateables int)
}

// Driver is the per-frame entry point called by the clock.
type Driver struct {
	stage    Redrawer
	registry *Registry
	observer FrameObserver
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithObserver reports frame timings to obs.
func WithObserver(obs FrameObserver) DriverOption {
	return func(d *Driver) { d.observer = obs }
}

// NewDriver creates a driver redrawing stage and updating registry entries.
func NewDriver(stage Redrawer, registry *Registry, opts ...DriverOption) *Driver {
	d := &Driver{
		stage:    stage,
		registry: registry,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnFrame redraws the stage, then updates every registered entry in
// registration order. Entries added or removed by an Update take effect on
// the next frame.
func (d *Driver) OnFrame() {
	start := time.Now()

	if d.stage != nil {
		d.stage.Redraw()
	}

	items := d.registry.Snapshot()
	for _, u := range items {
		u.Update()
	}

	if d.observer != nil {
		d.observer.ObserveFrame(time.Since(start), len(items))
	}
}
