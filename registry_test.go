package scopetree_test

import (
	"errors"
	"testing"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/mock"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
	manager  *scopetree.Manager
	owner    *scopetree.Scope
	child    *scopetree.Scope
	registry *scopetree.Registry[string]
}

func (s *RegistryTestSuite) SetupTest() {
	m, err := scopetree.NewManager()
	s.Require().NoError(err)
	s.manager = m

	s.owner, err = m.Resolve(nil, mock.NamedScreen("Album"))
	s.Require().NoError(err)
	s.child, err = m.Resolve(s.owner, mock.NamedScreen("Photo"))
	s.Require().NoError(err)

	s.registry = scopetree.NewRegistry[string]("pause-resume")
	s.Require().NoError(s.registry.Attach(s.owner))
}

func (s *RegistryTestSuite) TestDispatchInRegistrationOrder() {
	var order []string
	a := &mock.RecordingListener[string]{Name: "a", Log: &order}
	b := &mock.RecordingListener[string]{Name: "b", Log: &order}
	s.Require().NoError(s.registry.Register(s.child, a))
	s.Require().NoError(s.registry.Register(s.owner, b))

	s.NoError(s.registry.Dispatch("resume"))

	s.Equal([]string{"a", "b"}, order)
	s.Equal([]string{"resume"}, a.Events)
	s.Equal([]string{"resume"}, b.Events)
}

func (s *RegistryTestSuite) TestRegistrationIsDeduplicated() {
	l := &mock.RecordingListener[string]{}
	s.NoError(s.registry.Register(s.child, l))
	s.NoError(s.registry.Register(s.child, l))
	s.NoError(s.registry.Register(s.owner, l))

	s.Equal(1, s.registry.Len())
	s.NoError(s.registry.Dispatch("pause"))
	s.Equal([]string{"pause"}, l.Events)
}

func (s *RegistryTestSuite) TestScopeExitUnregisters() {
	l := &mock.RecordingListener[string]{}
	s.Require().NoError(s.registry.Register(s.child, l))
	s.Equal(1, s.registry.Len())

	s.manager.Destroy(s.child)

	s.Equal(0, s.registry.Len())
	s.NoError(s.registry.Dispatch("resume"))
	s.Empty(l.Events)
}

func (s *RegistryTestSuite) TestExplicitUnregisterThenScopeExit() {
	l := &mock.RecordingListener[string]{}
	s.Require().NoError(s.registry.Register(s.child, l))

	s.True(s.registry.Unregister(l))
	s.False(s.registry.Unregister(l))
	s.Equal(0, s.registry.Len())

	observers := s.child.ObserverCount()
	s.manager.Destroy(s.child)
	s.Equal(0, s.registry.Len())
	s.Equal(0, observers)
}

func (s *RegistryTestSuite) TestOwnerExitClearsEverything() {
	other, err := s.manager.Resolve(nil, mock.NamedScreen("Other"))
	s.Require().NoError(err)
	elsewhere := &mock.RecordingListener[string]{}
	s.Require().NoError(s.registry.Register(other, elsewhere))
	s.Require().NoError(s.registry.Register(s.child, &mock.RecordingListener[string]{}))
	s.Equal(2, s.registry.Len())

	s.manager.Destroy(s.owner)

	s.Equal(0, s.registry.Len())
	s.Equal(0, other.ObserverCount(), "registrations on surviving scopes are detached")
	s.NoError(s.registry.Dispatch("resume"))
	s.Empty(elsewhere.Events)
}

func (s *RegistryTestSuite) TestRegisterOnDestroyedScope() {
	s.manager.Destroy(s.child)

	err := s.registry.Register(s.child, &mock.RecordingListener[string]{})
	s.ErrorIs(err, scopetree.ErrScopeDestroyed)
	s.Equal(0, s.registry.Len())
}

func (s *RegistryTestSuite) TestRegisterRejectsBadInput() {
	err := s.registry.Register(s.child, nil)
	s.ErrorIs(err, scopetree.ErrInvalidObserver)

	err = s.registry.Register(nil, &mock.RecordingListener[string]{})
	s.True(scopetree.IsConfigurationError(err))

	err = s.registry.Register(s.child, funcListener(func(string) error { return nil }))
	s.ErrorIs(err, scopetree.ErrInvalidObserver)

	err = s.registry.Register(s.child, taggedListener{Tag: map[string]int{}})
	s.ErrorIs(err, scopetree.ErrInvalidObserver)
	s.Equal(0, s.registry.Len())
}

func (s *RegistryTestSuite) TestDispatchIsolatesFailures() {
	boom := errors.New("boom")
	failing := &mock.FailingListener[string]{Err: boom}
	panicking := &mock.PanickingListener[string]{Value: "kaboom"}
	last := &mock.RecordingListener[string]{}
	s.Require().NoError(s.registry.Register(s.child, failing))
	s.Require().NoError(s.registry.Register(s.child, panicking))
	s.Require().NoError(s.registry.Register(s.child, last))

	err := s.registry.Dispatch("resume")

	s.Require().Error(err)
	s.ErrorIs(err, scopetree.ErrListenerFailed)
	s.ErrorIs(err, boom)
	s.Contains(err.Error(), "kaboom")
	var le *scopetree.ListenerError
	s.Require().ErrorAs(err, &le)
	s.Equal("pause-resume", le.Registry)

	s.Equal(1, failing.Calls)
	s.Equal([]string{"resume"}, last.Events)
	s.Equal(3, s.registry.Len(), "failing listeners stay registered")
}

func (s *RegistryTestSuite) TestUnregisterDuringDispatch() {
	target := &mock.RecordingListener[string]{}
	remover := &mock.UnregisteringListener[string]{Registry: s.registry, Target: target}
	s.Require().NoError(s.registry.Register(s.child, remover))
	s.Require().NoError(s.registry.Register(s.child, target))

	s.NoError(s.registry.Dispatch("pause"))

	s.Empty(target.Events)
	s.Equal(1, s.registry.Len())
}

func (s *RegistryTestSuite) TestRegisterDuringDispatchWaitsForNextEvent() {
	late := &mock.RecordingListener[string]{}
	adder := &registeringListener{registry: s.registry, scope: s.child, add: late}
	s.Require().NoError(s.registry.Register(s.child, adder))

	s.NoError(s.registry.Dispatch("first"))
	s.Empty(late.Events)

	s.NoError(s.registry.Dispatch("second"))
	s.Equal([]string{"second"}, late.Events)
}

func (s *RegistryTestSuite) TestName() {
	s.Equal("pause-resume", s.registry.Name())
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

type taggedListener struct {
	Tag any
}

func (taggedListener) OnEvent(string) error { return nil }

type funcListener func(string) error

func (f funcListener) OnEvent(e string) error { return f(e) }

type registeringListener struct {
	registry *scopetree.Registry[string]
	scope    *scopetree.Scope
	add      scopetree.Listener[string]
}

func (l *registeringListener) OnEvent(string) error {
	return l.registry.Register(l.scope, l.add)
}
