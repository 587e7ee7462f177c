package presenter

import "fmt"

// PauseResume is dispatched when the owner pauses or resumes.
type PauseResume struct {
	Resumed bool
}

func (e PauseResume) String() string {
	if e.Resumed {
		return "resumed"
	}
	return "paused"
}

// ActivityResult carries the result of a screen the owner started for a result.
type ActivityResult struct {
	RequestCode int
	ResultCode  int
	Data        map[string]any
}

// Result codes.
const (
	ResultCanceled = 0
	ResultOK       = -1
)

// OK reports whether the result was delivered with ResultOK.
func (r ActivityResult) OK() bool {
	return r.ResultCode == ResultOK
}

// DrawerKind enumerates drawer callbacks.
type DrawerKind int

const (
	DrawerSlide DrawerKind = iota
	DrawerOpened
	DrawerClosed
	DrawerStateChanged
)

func (k DrawerKind) String() string {
	switch k {
	case DrawerSlide:
		return "slide"
	case DrawerOpened:
		return "opened"
	case DrawerClosed:
		return "closed"
	case DrawerStateChanged:
		return "state-changed"
	default:
		return fmt.Sprintf("DrawerKind(%d)", int(k))
	}
}

// Drawer states reported with DrawerStateChanged.
const (
	DrawerIdle = iota
	DrawerDragging
	DrawerSettling
)

// DrawerEvent is one navigation drawer callback.
type DrawerEvent struct {
	Kind   DrawerKind
	Offset float64
	State  int
}
