// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !integration

package router

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/request"
)

func mustRegister(t *testing.T, reg interface {
	Register([]string, string, any, ...RouteOption) (*Route, error)
}, verbs []string, pattern, handler string,
) *Route {
	t.Helper()

	route, err := reg.Register(verbs, pattern, handler)
	require.NoError(t, err)

	return route
}

func TestRegistry_LiteralBeatsVariable(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, []string{"GET"}, "/order/{id}", "byID")
	mustRegister(t, reg, []string{"GET"}, "/order/regist", "regist")
	reg.Freeze()

	m, err := reg.Resolve("/order/regist", "GET")
	require.NoError(t, err)
	assert.Equal(t, "regist", m.Route.Handler())
	assert.Empty(t, m.Vars)

	m, err = reg.Resolve("/order/77", "GET")
	require.NoError(t, err)
	assert.Equal(t, "byID", m.Route.Handler())
	assert.Equal(t, map[string]string{"id": "77"}, m.Vars)
}

func TestRegistry_FirstDifferingPositionDecides(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, nil, "/{a}/detail/{b}", "varFirst")
	mustRegister(t, reg, nil, "/order/{x}/{y}", "literalFirst")
	reg.Freeze()

	m, err := reg.Resolve("/order/detail/5", "GET")
	require.NoError(t, err)
	assert.Equal(t, "literalFirst", m.Route.Handler())
	assert.Equal(t, map[string]string{"x": "detail", "y": "5"}, m.Vars)

	m, err = reg.Resolve("/menu/detail/5", "GET")
	require.NoError(t, err)
	assert.Equal(t, "varFirst", m.Route.Handler())
}

func TestRegistry_SpecificityIgnoresRegistrationOrder(t *testing.T) {
	t.Parallel()

	patterns := map[string]string{
		"/{a}/{b}": "twoVars",
		"/{c}":     "oneVar",
		"/{a}/b":   "varLiteral",
		"/x/{y}/z": "threeSegments",
	}
	orders := [][]string{
		{"/{a}/{b}", "/{c}", "/{a}/b", "/x/{y}/z"},
		{"/{a}/b", "/{c}", "/{a}/{b}", "/x/{y}/z"},
		{"/{c}", "/x/{y}/z", "/{a}/{b}", "/{a}/b"},
		{"/x/{y}/z", "/{a}/{b}", "/{a}/b", "/{c}"},
	}

	for _, order := range orders {
		reg := New()
		for _, p := range order {
			mustRegister(t, reg, []string{"GET"}, p, patterns[p])
		}
		reg.Freeze()

		for path, want := range map[string]string{
			"/q/b":   "varLiteral",
			"/q/r":   "twoVars",
			"/q":     "oneVar",
			"/x/1/z": "threeSegments",
		} {
			m, err := reg.Resolve(path, "GET")
			require.NoError(t, err, "%v %s", order, path)
			assert.Equal(t, want, m.Route.Handler(), "%v %s", order, path)
		}
	}
}

func TestRegistry_VerbSelection(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, nil, "/menu/regist", "any")
	mustRegister(t, reg, []string{"post"}, "/menu/regist", "post")
	reg.Freeze()

	tests := []struct {
		verb string
		want string
	}{
		{"GET", "any"},
		{"POST", "post"},
		{"delete", "any"},
	}
	for _, tt := range tests {
		m, err := reg.Resolve("/menu/regist", tt.verb)
		require.NoError(t, err)
		assert.Equal(t, tt.want, m.Route.Handler(), tt.verb)
	}
}

func TestRegistry_VerbMismatchFallsThrough(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, []string{"GET"}, "/order/regist", "getRegist")
	mustRegister(t, reg, []string{"POST"}, "/order/{id}", "postByID")
	reg.Freeze()

	m, err := reg.Resolve("/order/regist", "POST")
	require.NoError(t, err)
	assert.Equal(t, "postByID", m.Route.Handler())
	assert.Equal(t, "regist", m.Vars["id"])
}

func TestRegistry_NoRouteFound(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, []string{"GET", "POST"}, "/menu/delete", "del")
	reg.Freeze()

	_, err := reg.Resolve("/menu/unknown", "GET")
	require.ErrorIs(t, err, mvcerrors.ErrNoRouteFound)

	var e *mvcerrors.Error
	require.ErrorAs(t, err, &e)
	assert.Empty(t, e.Allowed)

	_, err = reg.Resolve("/menu/delete", "PUT")
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{"GET", "POST"}, e.Allowed)
}

func TestRegistry_VariableNeedsNonEmptySegment(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, []string{"GET"}, "/order/detail/{orderNo}", "detail")
	reg.Freeze()

	_, err := reg.Resolve("/order/detail", "GET")
	require.ErrorIs(t, err, mvcerrors.ErrNoRouteFound)

	_, err = reg.Resolve("/order/detail/1/2", "GET")
	require.ErrorIs(t, err, mvcerrors.ErrNoRouteFound)
}

func TestRegistry_Duplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		first  []string
		second []string
		p1, p2 string
		dup    bool
	}{
		{"same verb same pattern", []string{"GET"}, []string{"GET"}, "/a", "/a", true},
		{"variable names ignored", []string{"GET"}, []string{"GET"}, "/a/{x}", "/a/{y}", true},
		{"overlapping verb set", []string{"GET", "POST"}, []string{"POST", "PUT"}, "/a", "/a", true},
		{"any verb twice", nil, []string{"*"}, "/a", "/a", true},
		{"trailing slash normalized", []string{"GET"}, []string{"GET"}, "/a/", "/a", true},
		{"different verbs", []string{"GET"}, []string{"POST"}, "/a", "/a", false},
		{"any verb next to explicit", []string{"GET"}, nil, "/a", "/a", false},
		{"different shapes", []string{"GET"}, []string{"GET"}, "/a/{x}", "/a/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := New()
			_, err := reg.Register(tt.first, tt.p1, "first")
			require.NoError(t, err)

			_, err = reg.Register(tt.second, tt.p2, "second")
			if tt.dup {
				require.ErrorIs(t, err, mvcerrors.ErrDuplicateRoute)
				assert.Equal(t, 1, reg.Len())
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, reg.Len())
			}
		})
	}
}

func TestRegistry_DuplicateRegistersNothing(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, []string{"POST"}, "/a", "post")

	_, err := reg.Register([]string{"GET", "POST"}, "/a", "both")
	require.Error(t, err)
	reg.Freeze()

	_, err = reg.Resolve("/a", "GET")
	require.ErrorIs(t, err, mvcerrors.ErrNoRouteFound)
}

func TestRegistry_InvalidPatterns(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/a/{}", "/a/{x}/{x}", "/a/b{x}", "/a/{x"} {
		_, err := New().Register(nil, p, "h")
		assert.ErrorIs(t, err, ErrInvalidPattern, p)
	}

	_, err := New().Register(nil, "/a", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestRegistry_Frozen(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Freeze()
	assert.True(t, reg.Frozen())

	_, err := reg.Register(nil, "/late", "h")
	require.ErrorIs(t, err, ErrRegistryFrozen)
}

func TestRegistry_RootAndTrailingSlash(t *testing.T) {
	t.Parallel()

	reg := New()
	mustRegister(t, reg, nil, "/", "root")
	mustRegister(t, reg, nil, "/main", "main")
	reg.Freeze()

	for path, want := range map[string]string{"/": "root", "": "root", "/main/": "main", "/main": "main"} {
		m, err := reg.Resolve(path, "GET")
		require.NoError(t, err, path)
		assert.Equal(t, want, m.Route.Handler(), path)
	}
}

func TestGroup_PrefixConcatenation(t *testing.T) {
	t.Parallel()

	reg := New()
	order := reg.Group("/order")
	detail := mustRegister(t, order, []string{"GET"}, "/detail/{orderNo}", "detail")
	other := mustRegister(t, order, []string{"GET"}, "", "other")
	nested := mustRegister(t, order.Group("info"), []string{"GET"}, "name", "name")
	reg.Freeze()

	assert.Equal(t, "/order/detail/{orderNo}", detail.Pattern())
	assert.Equal(t, "/order", other.Pattern())
	assert.Equal(t, "/order/info/name", nested.Pattern())
	assert.Equal(t, []string{"orderNo"}, detail.Vars())

	req := request.New("GET", "/order/detail/42")
	route, err := reg.ResolveRequest(req)
	require.NoError(t, err)
	assert.Same(t, detail, route)
	assert.Equal(t, "42", req.PathVars["orderNo"])
}

func TestGroup_NamePrefix(t *testing.T) {
	t.Parallel()

	reg := New()
	g := reg.Group("/first").SetNamePrefix("first.")
	r, err := g.Register([]string{"POST"}, "/regist", "h", WithName("regist"))
	require.NoError(t, err)
	assert.Equal(t, "first.regist", r.Name())
	assert.Equal(t, "POST /first/regist", r.String())
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	t.Parallel()

	reg := New()
	for i := range 50 {
		mustRegister(t, reg, []string{"GET"}, fmt.Sprintf("/item%d/{id}", i), fmt.Sprint(i))
	}
	reg.Freeze()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := reg.Resolve(fmt.Sprintf("/item%d/%d", i, i), "GET")
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprint(i), m.Route.Handler())
			assert.Equal(t, fmt.Sprint(i), m.Vars["id"])
		}(i)
	}
	wg.Wait()
}
