package scene

import (
	"sync"

	"go.uber.org/zap"
)

// Stage is the root of the scene graph and tracks the canvas size.
type Stage struct {
	Root *Container

	mu      sync.Mutex
	width   int
	height  int
	frames  uint64
	visible int
	logger  *zap.Logger
}

// NewStage creates a stage for a canvas of the given size.
func NewStage(width, height int, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{
		Root:   NewContainer("stage"),
		width:  width,
		height: height,
		logger: logger,
	}
}

// Size returns the canvas dimensions.
func (s *Stage) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize sets new canvas dimensions.
func (s *Stage) Resize(width, height int) {
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()

	s.logger.Debug("stage resized", zap.Int("width", width), zap.Int("height", height))
}

// Redraw walks the tree and records how many nodes would be painted.
func (s *Stage) Redraw() {
	n := countVisible(s.Root)

	s.mu.Lock()
	s.frames++
	s.visible = n
	s.mu.Unlock()
}

// Frames returns how many times the stage was redrawn.
func (s *Stage) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// VisibleNodes returns the node count painted by the last redraw.
func (s *Stage) VisibleNodes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func countVisible(n Node) int {
	obj := n.base()
	if !obj.Visible || obj.Alpha <= 0 {
		return 0
	}
	total := 1
	if c, ok := n.(*Container); ok {
		for _, child := range c.Children() {
			total += countVisible(child)
		}
	}
	return total
}
