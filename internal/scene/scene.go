// Package scene is a small headless retained-mode scene graph. Nodes are
// arranged under containers and the stage walks the tree on every redraw.
package scene

import (
	"sync"
	"sync/atomic"
)

// Node is anything that can live in a container.
type Node interface {
	base() *Object
}

// Object holds the properties shared by every node.
type Object struct {
	Name    string
	X, Y    float64
	Alpha   float64
	Visible bool

	parent atomic.Pointer[Container]
}

func (o *Object) init(name string) {
	o.Name, o.Alpha, o.Visible = name, 1, true
}

func (o *Object) base() *Object { return o }

// Parent returns the container holding this node, or nil.
func (o *Object) Parent() *Container { return o.parent.Load() }

// Container groups child nodes.
type Container struct {
	Object

	mu       sync.RWMutex
	children []Node
	onAdded  []func()
}

// NewContainer creates an empty container.
func NewContainer(name string) *Container {
	c := &Container{}
	c.init(name)
	return c
}

// AddChild appends nodes, reparenting them if needed. A child container's
// OnAdded listeners fire once it is attached. When two containers race for
// the same node only one of them gets it.
func (c *Container) AddChild(nodes ...Node) {
	for _, n := range nodes {
		obj := n.base()
		if p := obj.parent.Load(); p != nil && p != c {
			p.RemoveChild(n)
		}

		c.mu.Lock()
		if !obj.parent.CompareAndSwap(nil, c) {
			c.mu.Unlock()
			continue
		}
		c.children = append(c.children, n)
		c.mu.Unlock()

		if child, ok := n.(*Container); ok {
			child.fireAdded()
		}
	}
}

// RemoveChild detaches n. It reports whether n was a child.
func (c *Container) RemoveChild(n Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, child := range c.children {
		if child != n {
			continue
		}
		c.children = append(c.children[:i:i], c.children[i+1:]...)
		n.base().parent.Store(nil)
		return true
	}
	return false
}

// Contains reports whether n is a direct child.
func (c *Container) Contains(n Node) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, child := range c.children {
		if child == n {
			return true
		}
	}
	return false
}

// Children returns a copy of the child list.
func (c *Container) Children() []Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Node(nil), c.children...)
}

// NumChildren returns the number of direct children.
func (c *Container) NumChildren() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.children)
}

// OnAdded registers fn to run once, the next time this container is added
// to a parent.
func (c *Container) OnAdded(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAdded = append(c.onAdded, fn)
}

func (c *Container) fireAdded() {
	c.mu.Lock()
	pending := c.onAdded
	c.onAdded = nil
	c.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// Text is a single line label.
type Text struct {
	Object
	Text  string
	Font  string
	Color string
	Align string
}

// NewText creates a label.
func NewText(text, font, color, align string) *Text {
	t := &Text{Text: text, Font: font, Color: color, Align: align}
	t.init("text")
	return t
}

// Circle is a filled circle centred on X, Y.
type Circle struct {
	Object
	Radius float64
	Color  string
}

// NewCircle creates a circle.
func NewCircle(radius float64, color string) *Circle {
	c := &Circle{Radius: radius, Color: color}
	c.init("circle")
	return c
}
