package scopetree_test

import (
	"testing"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/mock"
	"github.com/stretchr/testify/suite"
)

type FactoryTestSuite struct {
	suite.Suite
	resolver *scopetree.FactoryResolver
}

func (s *FactoryTestSuite) SetupTest() {
	s.resolver = scopetree.NewFactoryResolver(nil)
}

func (s *FactoryTestSuite) TestCacheReturnsSameFactory() {
	first, err := s.resolver.Resolve(&mock.AlbumScreen{ID: 1})
	s.Require().NoError(err)
	second, err := s.resolver.Resolve(&mock.AlbumScreen{ID: 2})
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(1, s.resolver.Len())
}

func (s *FactoryTestSuite) TestSingleArgFactoryUsesScreen() {
	f, err := s.resolver.Resolve(&mock.AlbumScreen{ID: 42})
	s.Require().NoError(err)
	s.Equal("single-arg factory for *mock.AlbumScreen", f.(interface{ String() string }).String())

	component, err := f.Build("parent", &mock.AlbumScreen{ID: 42})
	s.Require().NoError(err)
	ac := component.(*mock.AlbumComponent)
	s.Equal(42, ac.Module.AlbumID)
	s.Equal("parent", ac.Parent)
}

func (s *FactoryTestSuite) TestNoArgFactory() {
	f, err := s.resolver.Resolve(mock.SettingsScreen{})
	s.Require().NoError(err)

	component, err := f.Build(nil, mock.SettingsScreen{})
	s.Require().NoError(err)
	s.Equal("dark", component.(*mock.SettingsModule).Theme)
}

func (s *FactoryTestSuite) TestExplicitFactoryType() {
	f, err := s.resolver.Resolve(&mock.PlayerScreen{Track: "a"})
	s.Require().NoError(err)
	s.IsType(mock.PlayerFactory{}, f)

	again, err := s.resolver.Resolve(&mock.PlayerScreen{Track: "b"})
	s.Require().NoError(err)
	s.Equal(f, again)
	s.Equal(1, s.resolver.Len())
}

func (s *FactoryTestSuite) TestBrokenFactoryType() {
	_, err := s.resolver.Resolve(mock.BrokenFactoryScreen{})
	s.ErrorIs(err, scopetree.ErrInvalidFactoryType)
	s.True(scopetree.IsConfigurationError(err))
	s.Equal(0, s.resolver.Len())
}

func (s *FactoryTestSuite) TestInvalidModuleErrorsOnEveryCall() {
	calls := 0
	screen := mock.TwoConstructorScreen{Calls: &calls}

	for i := 0; i < 3; i++ {
		_, err := s.resolver.Resolve(screen)
		s.ErrorIs(err, scopetree.ErrInvalidModule)
		s.True(scopetree.IsConfigurationError(err))
	}
	s.Equal(3, calls, "invalid declarations are re-validated, never cached")
	s.Equal(0, s.resolver.Len())
}

func (s *FactoryTestSuite) TestInvalidModuleShapes() {
	cases := map[string]scopetree.Screen{
		"TwoParams":  mock.TwoParamScreen{},
		"TwoModules": mock.TwoModuleScreen{},
		"WrongParam": mock.WrongParamScreen{},
	}
	for name, screen := range cases {
		s.Run(name, func() {
			_, err := s.resolver.Resolve(screen)
			s.ErrorIs(err, scopetree.ErrInvalidModule)
		})
	}
}

func (s *FactoryTestSuite) TestNoFactoryIsCached() {
	_, err := s.resolver.Resolve(mock.BareScreen{Name: "a"})
	s.ErrorIs(err, scopetree.ErrNoFactory)
	s.Equal(1, s.resolver.Len())

	_, err = s.resolver.Resolve(mock.BareScreen{Name: "b"})
	s.ErrorIs(err, scopetree.ErrNoFactory)
	s.Equal(1, s.resolver.Len())
}

func (s *FactoryTestSuite) TestRegisterFactory() {
	built := 0
	f := scopetree.FactoryFunc(func(parent any, screen scopetree.Screen) (any, error) {
		built++
		return screen.ScopeName(), nil
	})
	s.Require().NoError(scopetree.RegisterFactory[mock.BareScreen](s.resolver, f))

	resolved, err := s.resolver.Resolve(mock.BareScreen{Name: "x"})
	s.Require().NoError(err)
	out, err := resolved.Build(nil, mock.BareScreen{Name: "x"})
	s.NoError(err)
	s.Equal("x", out)
	s.Equal(1, built)

	err = scopetree.RegisterFactory[mock.BareScreen](s.resolver, f)
	s.ErrorIs(err, scopetree.ErrInvalidFactoryType)
}

func (s *FactoryTestSuite) TestRegisterReplacesNoFactorySentinel() {
	_, err := s.resolver.Resolve(mock.BareScreen{Name: "a"})
	s.Require().ErrorIs(err, scopetree.ErrNoFactory)

	f := scopetree.FactoryFunc(func(any, scopetree.Screen) (any, error) { return 1, nil })
	s.Require().NoError(scopetree.RegisterFactory[mock.BareScreen](s.resolver, f))

	_, err = s.resolver.Resolve(mock.BareScreen{Name: "a"})
	s.NoError(err)
}

func (s *FactoryTestSuite) TestRegisterRejectsBadInput() {
	err := scopetree.RegisterFactory[scopetree.Screen](s.resolver, scopetree.FactoryFunc(nil))
	s.ErrorIs(err, scopetree.ErrInvalidFactoryType)

	err = scopetree.RegisterFactory[mock.BareScreen](s.resolver, nil)
	s.ErrorIs(err, scopetree.ErrInvalidFactoryType)
}

func (s *FactoryTestSuite) TestNilScreen() {
	_, err := s.resolver.Resolve(nil)
	s.ErrorIs(err, scopetree.ErrNoFactory)
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactoryTestSuite))
}
