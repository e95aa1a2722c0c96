package runtime

import (
	"errors"
	"sort"
)

// Scope is a handle to a frame in an Environment.
type Scope int32

// NoScope is the parent of the root frame.
const NoScope Scope = -1

var (
	errNotDeclared = errors.New("not declared")
	errRedeclared  = errors.New("already declared in this scope")
	errReadOnly    = errors.New("binding is immutable")
)

type binding struct {
	value   Value
	mutable bool
}

type frame struct {
	parent Scope
	vars   map[string]*binding
	live   bool
	pinned bool
}

// Environment stores every scope frame of a program in one arena. Frames
// are addressed by Scope handles and linked to their parent by handle, so
// lookups walk an index chain instead of pointers. Popped frames are reused
// by the next Push unless they are pinned.
type Environment struct {
	frames []frame
	free   []Scope
}

// NewEnvironment returns an environment holding only the root frame.
func NewEnvironment() *Environment {
	e := &Environment{}
	e.frames = append(e.frames, frame{parent: NoScope, vars: map[string]*binding{}, live: true})
	return e
}

// Root is the outermost frame. It is never popped.
func (e *Environment) Root() Scope { return 0 }

// Define binds name in the root frame. Hosts use it to pre-seed natives
// and globals before running a program.
func (e *Environment) Define(name string, v Value, mutable bool) error {
	return e.Declare(e.Root(), name, v, mutable)
}

// Declare binds name in frame s. Redeclaring a name already bound in the
// same frame fails; shadowing a binding of an outer frame is allowed.
func (e *Environment) Declare(s Scope, name string, v Value, mutable bool) error {
	f := e.frame(s)
	if _, ok := f.vars[name]; ok {
		return errRedeclared
	}
	if v == nil {
		v = Null{}
	}
	f.vars[name] = &binding{value: v, mutable: mutable}
	return nil
}

// Lookup resolves name starting at frame s and walking outward.
func (e *Environment) Lookup(s Scope, name string) (Value, bool) {
	b := e.resolve(s, name)
	if b == nil {
		return nil, false
	}
	return b.value, true
}

// Assign updates the nearest binding of name visible from s.
func (e *Environment) Assign(s Scope, name string, v Value) error {
	b := e.resolve(s, name)
	switch {
	case b == nil:
		return errNotDeclared
	case !b.mutable:
		return errReadOnly
	}
	b.value = v
	return nil
}

// Mutable reports whether the nearest binding of name visible from s may
// be reassigned. ok is false when name is not bound.
func (e *Environment) Mutable(s Scope, name string) (mutable, ok bool) {
	b := e.resolve(s, name)
	if b == nil {
		return false, false
	}
	return b.mutable, true
}

// Push opens a child frame of parent.
func (e *Environment) Push(parent Scope) Scope {
	if n := len(e.free); n > 0 {
		s := e.free[n-1]
		e.free = e.free[:n-1]
		f := &e.frames[s]
		f.parent = parent
		f.live = true
		return s
	}
	e.frames = append(e.frames, frame{parent: parent, vars: map[string]*binding{}, live: true})
	return Scope(len(e.frames) - 1)
}

// Pop closes frame s. Its bindings are dropped and the slot recycled,
// unless s was pinned, in which case the frame stays readable until Unpin.
func (e *Environment) Pop(s Scope) {
	if s == e.Root() {
		return
	}
	f := e.frame(s)
	f.live = false
	if f.pinned {
		return
	}
	clear(f.vars)
	e.free = append(e.free, s)
}

// Pin keeps frame s (and so everything it can see) alive after Pop. Hosts
// pin a frame when a native captures it beyond the block that created it.
func (e *Environment) Pin(s Scope) {
	e.frame(s).pinned = true
}

// Unpin releases a pinned frame. If it was already popped it is recycled
// now.
func (e *Environment) Unpin(s Scope) {
	f := e.frame(s)
	if !f.pinned {
		return
	}
	f.pinned = false
	if !f.live && s != e.Root() {
		clear(f.vars)
		e.free = append(e.free, s)
	}
}

// Names returns every identifier visible from s, sorted. Shadowed names
// appear once.
func (e *Environment) Names(s Scope) []string {
	seen := map[string]bool{}
	for cur := s; cur != NoScope; cur = e.frames[cur].parent {
		for name := range e.frames[cur].vars {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Depth is the number of frames between s and the root.
func (e *Environment) Depth(s Scope) int {
	d := 0
	for cur := s; cur != e.Root() && cur != NoScope; cur = e.frames[cur].parent {
		d++
	}
	return d
}

// Frames is the number of frame slots allocated so far, live or free.
func (e *Environment) Frames() int { return len(e.frames) }

func (e *Environment) frame(s Scope) *frame {
	return &e.frames[s]
}

func (e *Environment) resolve(s Scope, name string) *binding {
	for cur := s; cur != NoScope; cur = e.frames[cur].parent {
		if b, ok := e.frames[cur].vars[name]; ok {
			return b
		}
	}
	return nil
}
