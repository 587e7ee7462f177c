package mock

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/centraunit/scopetree"
)

// AppComponent is the component installed on the root scope by tests.
type AppComponent struct {
	Name string
}

// AlbumModule is built from the AlbumScreen that owns it.
type AlbumModule struct {
	AlbumID int
}

func NewAlbumModule(screen *AlbumScreen) *AlbumModule {
	return &AlbumModule{AlbumID: screen.ID}
}

// AlbumComponent combines the parent component with the album module.
type AlbumComponent struct {
	Parent any
	Module *AlbumModule
}

// AlbumScreen resolves to the "Album:<id>" scope through a single-arg module.
type AlbumScreen struct {
	ID int
}

func (s *AlbumScreen) ScopeName() string {
	return "Album:" + strconv.Itoa(s.ID)
}

func (s *AlbumScreen) ComponentSpec() scopetree.ComponentSpec {
	return scopetree.ComponentSpec{
		Name:    "AlbumComponent",
		Modules: []scopetree.ModuleSpec{scopetree.Module[*AlbumModule](NewAlbumModule)},
		Assemble: func(parent any, module any) (any, error) {
			return &AlbumComponent{Parent: parent, Module: module.(*AlbumModule)}, nil
		},
	}
}

// SettingsModule has a no-arg constructor.
type SettingsModule struct {
	Theme string
}

func NewSettingsModule() (*SettingsModule, error) {
	return &SettingsModule{Theme: "dark"}, nil
}

// SettingsScreen uses its module as the component.
type SettingsScreen struct{}

func (SettingsScreen) ScopeName() string { return "Settings" }

func (SettingsScreen) ComponentSpec() scopetree.ComponentSpec {
	return scopetree.ComponentSpec{
		Modules: []scopetree.ModuleSpec{scopetree.Module[*SettingsModule](NewSettingsModule)},
	}
}

// PlayerComponent is built by PlayerFactory.
type PlayerComponent struct {
	Parent any
	Track  string
}

// PlayerFactory is the explicit factory declared by PlayerScreen.
type PlayerFactory struct{}

func (PlayerFactory) Build(parent any, screen scopetree.Screen) (any, error) {
	return &PlayerComponent{Parent: parent, Track: screen.(*PlayerScreen).Track}, nil
}

// PlayerScreen declares an explicit factory type.
type PlayerScreen struct {
	Track string
}

func (s *PlayerScreen) ScopeName() string { return "Player:" + s.Track }

func (*PlayerScreen) FactoryType() reflect.Type {
	return reflect.TypeFor[PlayerFactory]()
}

// BrokenFactoryScreen declares a type that is not a Factory.
type BrokenFactoryScreen struct{}

func (BrokenFactoryScreen) ScopeName() string { return "Broken" }

func (BrokenFactoryScreen) FactoryType() reflect.Type {
	return reflect.TypeFor[int]()
}

// TwoConstructorScreen declares a module with two constructors. Calls counts
// how often its declaration is read.
type TwoConstructorScreen struct {
	Calls *int
}

func (TwoConstructorScreen) ScopeName() string { return "TwoConstructors" }

func (s TwoConstructorScreen) ComponentSpec() scopetree.ComponentSpec {
	if s.Calls != nil {
		*s.Calls++
	}
	return scopetree.ComponentSpec{
		Modules: []scopetree.ModuleSpec{
			scopetree.Module[*SettingsModule](NewSettingsModule, NewSettingsModule),
		},
	}
}

// TwoParamScreen declares a constructor taking two parameters.
type TwoParamScreen struct{}

func (TwoParamScreen) ScopeName() string { return "TwoParams" }

func (TwoParamScreen) ComponentSpec() scopetree.ComponentSpec {
	return scopetree.ComponentSpec{
		Modules: []scopetree.ModuleSpec{
			scopetree.Module[*AlbumModule](func(a, b int) *AlbumModule { return &AlbumModule{AlbumID: a + b} }),
		},
	}
}

// TwoModuleScreen declares two modules.
type TwoModuleScreen struct{}

func (TwoModuleScreen) ScopeName() string { return "TwoModules" }

func (TwoModuleScreen) ComponentSpec() scopetree.ComponentSpec {
	return scopetree.ComponentSpec{
		Modules: []scopetree.ModuleSpec{
			scopetree.Module[*SettingsModule](NewSettingsModule),
			scopetree.Module[*SettingsModule](NewSettingsModule),
		},
	}
}

// WrongParamScreen declares a constructor whose parameter is not the screen.
type WrongParamScreen struct{}

func (WrongParamScreen) ScopeName() string { return "WrongParam" }

func (WrongParamScreen) ComponentSpec() scopetree.ComponentSpec {
	return scopetree.ComponentSpec{
		Modules: []scopetree.ModuleSpec{
			scopetree.Module[*AlbumModule](func(id string) *AlbumModule { return &AlbumModule{} }),
		},
	}
}

// ErrModuleFailed is returned by FailingScreen's constructor.
var ErrModuleFailed = errors.New("module construction failed")

// FailingScreen declares a constructor that always fails.
type FailingScreen struct{}

func (FailingScreen) ScopeName() string { return "Failing" }

func (FailingScreen) ComponentSpec() scopetree.ComponentSpec {
	return scopetree.ComponentSpec{
		Modules: []scopetree.ModuleSpec{
			scopetree.Module[*SettingsModule](func() (*SettingsModule, error) { return nil, ErrModuleFailed }),
		},
	}
}

// BareScreen declares nothing.
type BareScreen struct {
	Name string
}

func (s BareScreen) ScopeName() string { return s.Name }

// OverlayScreen intentionally has no component.
type OverlayScreen struct {
	Name string
}

func (s OverlayScreen) ScopeName() string { return s.Name }

func (OverlayScreen) Componentless() {}

// NamedScreen is a componentless screen used for building arbitrary trees.
type NamedScreen string

func (s NamedScreen) ScopeName() string { return string(s) }

func (NamedScreen) Componentless() {}

func (s NamedScreen) String() string { return fmt.Sprintf("NamedScreen(%s)", string(s)) }
