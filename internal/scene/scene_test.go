package scene

import (
	"sync"
	"testing"
)

func TestAddRemoveChild(t *testing.T) {
	root := NewContainer("root")
	label := NewText("LOBBY", "bold 60px Arial", "#CCC", "center")

	root.AddChild(label)
	if !root.Contains(label) {
		t.Fatal("expected label to be a child")
	}
	if label.Parent() != root {
		t.Error("expected parent to be root")
	}

	// adding twice keeps a single entry
	root.AddChild(label)
	if n := root.NumChildren(); n != 1 {
		t.Errorf("expected 1 child, got %d", n)
	}

	if !root.RemoveChild(label) {
		t.Error("RemoveChild returned false for a child")
	}
	if root.RemoveChild(label) {
		t.Error("RemoveChild returned true for a removed node")
	}
	if label.Parent() != nil {
		t.Error("expected parent to be cleared")
	}
}

func TestReparent(t *testing.T) {
	a, b := NewContainer("a"), NewContainer("b")
	dot := NewCircle(10, "#CCC")

	a.AddChild(dot)
	b.AddChild(dot)

	if a.Contains(dot) {
		t.Error("old parent still holds the node")
	}
	if !b.Contains(dot) {
		t.Error("new parent does not hold the node")
	}
}

func TestOnAddedFiresOnce(t *testing.T) {
	root := NewContainer("root")
	view := NewContainer("view")

	calls := 0
	view.OnAdded(func() { calls++ })

	root.AddChild(view)
	root.RemoveChild(view)
	root.AddChild(view)

	if calls != 1 {
		t.Errorf("expected OnAdded to fire once, got %d", calls)
	}
}

func TestStageRedraw(t *testing.T) {
	stage := NewStage(800, 600, nil)
	view := NewContainer("view")
	hidden := NewText("hidden", "", "", "")
	hidden.Visible = false

	view.AddChild(NewText("PLAYING", "", "", ""), NewCircle(10, "#CCC"), hidden)
	stage.Root.AddChild(view)

	stage.Redraw()
	stage.Redraw()

	if stage.Frames() != 2 {
		t.Errorf("expected 2 frames, got %d", stage.Frames())
	}
	// root + view + text + circle
	if n := stage.VisibleNodes(); n != 4 {
		t.Errorf("expected 4 visible nodes, got %d", n)
	}
}

func TestStageResize(t *testing.T) {
	stage := NewStage(800, 600, nil)
	stage.Resize(1920, 1080)

	w, h := stage.Size()
	if w != 1920 || h != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", w, h)
	}
}

func TestConcurrentAddSingleParent(t *testing.T) {
	for i := 0; i < 50; i++ {
		a, b := NewContainer("a"), NewContainer("b")
		node := NewCircle(1, "#fff")

		var wg sync.WaitGroup
		for _, c := range []*Container{a, b} {
			wg.Add(1)
			go func(c *Container) {
				defer wg.Done()
				c.AddChild(node)
			}(c)
		}
		wg.Wait()

		total := a.NumChildren() + b.NumChildren()
		if total != 1 {
			t.Fatalf("node held by %d containers, want 1", total)
		}
		if p := node.Parent(); !p.Contains(node) {
			t.Fatalf("parent %s does not hold the node", p.Name)
		}
	}
}
