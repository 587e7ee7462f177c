package scopetree

import (
	"fmt"
	"log/slog"
	"reflect"
)

// ComponentSpec declares the component a screen's scope is built from.
// It must name exactly one module.
type ComponentSpec struct {
	// Name identifies the component in error messages.
	Name string

	// Modules lists the component's module dependencies.
	Modules []ModuleSpec

	// Assemble builds the component from the parent component (nil when
	// standalone) and the constructed module. When nil the module itself is
	// the component.
	Assemble func(parent any, module any) (any, error)
}

// ModuleSpec declares a module and its constructors.
// It must have exactly one constructor taking zero or one parameter.
type ModuleSpec struct {
	Type         reflect.Type
	Constructors []any
}

// Module declares a module of type M built by the given constructors.
func Module[M any](constructors ...any) ModuleSpec {
	return ModuleSpec{
		Type:         reflect.TypeFor[M](),
		Constructors: constructors,
	}
}

var (
	factoryType = reflect.TypeFor[Factory]()
	errorType   = reflect.TypeFor[error]()
)

// noFactoryMarker is cached for screens with no way to build a component, so
// repeated lookups fail without walking reflection again.
type noFactoryMarker struct{}

func (noFactoryMarker) Build(any, Screen) (any, error) {
	return nil, ErrNoFactory
}

var noFactory Factory = noFactoryMarker{}

// moduleFactory builds a component through a validated module constructor.
type moduleFactory struct {
	key        string
	ctor       reflect.Value
	withScreen bool
	assemble   func(parent any, module any) (any, error)
}

func (f *moduleFactory) Build(parent any, screen Screen) (any, error) {
	var args []reflect.Value
	if f.withScreen {
		args = []reflect.Value{reflect.ValueOf(screen)}
	}
	out := f.ctor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	module := out[0].Interface()
	if f.assemble == nil {
		return module, nil
	}
	return f.assemble(parent, module)
}

// TakesScreen reports whether the module is constructed from the screen instance.
func (f *moduleFactory) TakesScreen() bool {
	return f.withScreen
}

func (f *moduleFactory) String() string {
	if f.withScreen {
		return fmt.Sprintf("single-arg factory for %s", f.key)
	}
	return fmt.Sprintf("no-arg factory for %s", f.key)
}

// FactoryResolver maps screen types to the factories that build their
// components. Entries are created once per type and never evicted.
//
// A FactoryResolver is not safe for concurrent use.
type FactoryResolver struct {
	cache  map[reflect.Type]Factory
	logger *slog.Logger
}

// NewFactoryResolver creates an empty resolver. A nil logger discards output.
func NewFactoryResolver(logger *slog.Logger) *FactoryResolver {
	if logger == nil {
		logger = discardLogger()
	}
	return &FactoryResolver{
		cache:  make(map[reflect.Type]Factory, 32),
		logger: logger,
	}
}

// Register seeds the cache with f for screens whose dynamic type is key.
func (r *FactoryResolver) Register(key reflect.Type, f Factory) error {
	if key == nil || key.Kind() == reflect.Interface {
		return configErr(fmt.Sprint(key), ErrInvalidFactoryType, "key must be a concrete screen type")
	}
	if f == nil {
		return configErr(key.String(), ErrInvalidFactoryType, "nil factory")
	}
	if existing, ok := r.cache[key]; ok && existing != noFactory {
		return configErr(key.String(), ErrInvalidFactoryType, "factory already registered")
	}
	r.cache[key] = f
	return nil
}

// RegisterFactory seeds r with f for screen type S.
func RegisterFactory[S Screen](r *FactoryResolver, f Factory) error {
	return r.Register(reflect.TypeFor[S](), f)
}

// Len returns the number of cached entries, sentinel entries included.
func (r *FactoryResolver) Len() int {
	return len(r.cache)
}

// Resolve returns the factory for screen's type, deriving and caching it on
// first use.
func (r *FactoryResolver) Resolve(screen Screen) (Factory, error) {
	if screen == nil {
		return nil, configErr("<nil>", ErrNoFactory, "nil screen")
	}
	key := reflect.TypeOf(screen)
	if f, ok := r.cache[key]; ok {
		if f == noFactory {
			return nil, configErr(key.String(), ErrNoFactory, "screen declares neither a factory nor a component")
		}
		return f, nil
	}

	f, err := r.derive(key, screen)
	if err != nil {
		return nil, err
	}
	if f == nil {
		r.cache[key] = noFactory
		r.logger.Debug("no factory for screen", "key", key.String())
		return nil, configErr(key.String(), ErrNoFactory, "screen declares neither a factory nor a component")
	}
	r.cache[key] = f
	r.logger.Debug("factory cached", "key", key.String(), "factory", fmt.Sprint(f))
	return f, nil
}

// derive returns nil, nil when the screen declares nothing.
func (r *FactoryResolver) derive(key reflect.Type, screen Screen) (Factory, error) {
	if decl, ok := screen.(FactoryDeclarer); ok {
		return instantiateFactory(key, decl.FactoryType())
	}
	if decl, ok := screen.(ComponentDeclarer); ok {
		return validateComponent(key, decl.ComponentSpec())
	}
	return nil, nil
}

func instantiateFactory(key, t reflect.Type) (Factory, error) {
	if t == nil {
		return nil, configErr(key.String(), ErrInvalidFactoryType, "nil factory type")
	}
	switch {
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && t.Implements(factoryType):
		return reflect.New(t.Elem()).Interface().(Factory), nil
	case t.Kind() == reflect.Struct && t.Implements(factoryType):
		return reflect.New(t).Elem().Interface().(Factory), nil
	case t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(factoryType):
		return reflect.New(t).Interface().(Factory), nil
	}
	return nil, configErr(key.String(), ErrInvalidFactoryType,
		"%s is not a default-constructible Factory", t)
}

// validateComponent enforces exactly one module, exactly one constructor and
// at most one constructor parameter, assignable from the screen type.
func validateComponent(key reflect.Type, spec ComponentSpec) (Factory, error) {
	name := key.String()
	component := spec.Name
	if component == "" {
		component = name
	}
	if len(spec.Modules) != 1 {
		return nil, configErr(name, ErrInvalidModule,
			"component %s declares %d modules, want exactly one", component, len(spec.Modules))
	}
	mod := spec.Modules[0]
	modName := "module"
	if mod.Type != nil {
		modName = mod.Type.String()
	}
	if len(mod.Constructors) != 1 {
		return nil, configErr(name, ErrInvalidModule,
			"%s declares %d constructors, want exactly one", modName, len(mod.Constructors))
	}

	ctor := reflect.ValueOf(mod.Constructors[0])
	if ctor.Kind() != reflect.Func || ctor.IsNil() {
		return nil, configErr(name, ErrInvalidModule,
			"%s constructor is %T, not a function", modName, mod.Constructors[0])
	}
	ft := ctor.Type()
	if ft.IsVariadic() || ft.NumIn() > 1 {
		return nil, configErr(name, ErrInvalidModule,
			"%s constructor takes %d parameters, want at most one", modName, ft.NumIn())
	}
	if ft.NumIn() == 1 && !key.AssignableTo(ft.In(0)) {
		return nil, configErr(name, ErrInvalidModule,
			"%s constructor parameter %s is not assignable from the screen", modName, ft.In(0))
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return nil, configErr(name, ErrInvalidModule,
			"%s constructor must return the module and optionally an error", modName)
	}
	if mod.Type != nil && !ft.Out(0).AssignableTo(mod.Type) {
		return nil, configErr(name, ErrInvalidModule,
			"%s constructor returns %s", modName, ft.Out(0))
	}

	return &moduleFactory{
		key:        name,
		ctor:       ctor,
		withScreen: ft.NumIn() == 1,
		assemble:   spec.Assemble,
	}, nil
}
