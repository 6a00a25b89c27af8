package trace

import (
	"symlayer/internal/keys"
	"symlayer/internal/layout"
	"symlayer/internal/router"
)

// Editor is a minimal text field used to observe what a sequence of outcomes
// would type. Events the router does not handle, and keys it forwards, are
// typed with the resolver the way a host would.
type Editor struct {
	resolver keys.Resolver
	text     []rune
}

// NewEditor creates an editor. A nil resolver uses the reference layout.
func NewEditor(r keys.Resolver) *Editor {
	if r == nil {
		r = layout.Reference
	}
	return &Editor{resolver: r}
}

// Set replaces the editor content.
func (e *Editor) Set(s string) {
	e.text = []rune(s)
}

// Apply applies the outcome of ev.
func (e *Editor) Apply(ev keys.Event, o router.Outcome) {
	if !o.Handled {
		if ev.Action == keys.Down {
			e.hostKey(ev.Code, ev.Meta)
		}
		return
	}
	for _, a := range o.Actions {
		switch a.Kind {
		case router.ActionCommit:
			e.text = append(e.text, []rune(a.Text)...)
		case router.ActionDelete:
			e.deleteBefore(a.Count)
		case router.ActionForward:
			if a.KeyAction == keys.Down {
				e.hostKey(a.Code, a.Meta)
			}
		}
	}
}

// hostKey applies the default handling of a key press.
func (e *Editor) hostKey(c keys.Code, meta keys.Meta) {
	if c == keys.CodeDel {
		e.deleteBefore(1)
		return
	}
	if meta.Any(keys.MetaCtrl | keys.MetaMeta) {
		return
	}
	if r := e.resolver.Resolve(c, meta); r != 0 {
		e.text = append(e.text, r)
	}
}

func (e *Editor) deleteBefore(n int) {
	if n > len(e.text) {
		n = len(e.text)
	}
	e.text = e.text[:len(e.text)-n]
}

func (e *Editor) String() string {
	return string(e.text)
}
