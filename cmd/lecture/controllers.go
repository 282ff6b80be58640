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
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"rivaas.dev/mvc/binding"
	"rivaas.dev/mvc/container"
	"rivaas.dev/mvc/dispatch"
	mvcerrors "rivaas.dev/mvc/errors"
	"rivaas.dev/mvc/exception"
	"rivaas.dev/mvc/view"
)

// Bean names.
const (
	menuServiceBean  = "menuService"
	orderServiceBean = "orderService"
	fileServiceBean  = "fileService"
)

// loginAttribute is the session attribute holding the logged-in member.
const loginAttribute = "loginMember"

var errOrderNotFound = errors.New("order not found")

// provideServices registers the services the controllers look up. Uploads
// are stored under uploadDir.
func provideServices(c *container.Container, uploadDir string) error {
	return errors.Join(
		c.Provide(menuServiceBean, func(*container.Container) (any, error) {
			return NewMenuService(
				Menu{Name: "Americano", Price: 3000, Category: 1, Orderable: true},
				Menu{Name: "Green Tea", Price: 3500, Category: 2, Orderable: true},
			), nil
		}),
		c.Provide(orderServiceBean, func(*container.Container) (any, error) {
			return NewOrderService(
				Order{No: 1, Menus: []string{"Americano"}, Total: 3000},
				Order{No: 42, Menus: []string{"Americano", "Green Tea"}, Total: 6500},
			), nil
		}),
		c.Provide(fileServiceBean, func(*container.Container) (any, error) {
			return NewFileService(uploadDir), nil
		}),
	)
}

func bean[T any](call *dispatch.Call, name string) (T, error) {
	v, err := container.Get[T](call.Beans, name)
	if err != nil {
		return v, fmt.Errorf("lookup %s: %w", name, err)
	}

	return v, nil
}

// registerRoutes wires every controller into d.
func registerRoutes(d *dispatch.Dispatcher, logger *slog.Logger) error {
	return errors.Join(
		registerMain(d),
		registerMenu(d.Group("/menu")),
		registerOrder(d.Group("/order")),
		registerMember(d.Group("/member")),
		registerFile(d.Group("/file")),
		registerExceptions(d),
		d.Use(dispatch.LoggingInterceptor(logger)),
	)
}

func registerMain(d *dispatch.Dispatcher) error {
	return d.Handle([]string{"GET"}, []string{"/", "/main"}, func(context.Context, *dispatch.Call) (view.Outcome, error) {
		return view.Name("main"), nil
	})
}

func registerMenu(g *dispatch.Group) error {
	list := func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		svc, err := bean[*MenuService](call, menuServiceBean)
		if err != nil {
			return nil, err
		}
		return view.ForwardTo("menu/list", map[string]any{"menus": svc.List()}), nil
	}

	regist := func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		svc, err := bean[*MenuService](call, menuServiceBean)
		if err != nil {
			return nil, err
		}
		m := dispatch.Arg[Menu](call, 0)
		if err = svc.Register(m); err != nil {
			return nil, err
		}
		return view.Redirect{Path: "/menu/list"}.WithFlash("message", fmt.Sprintf("%s registered", m.Name)), nil
	}

	g.Exceptions().On(exception.TypeOf[*MenuRegistError](), "menu/regist")

	return errors.Join(
		g.Get("/list", list),
		g.Get("/regist", func(context.Context, *dispatch.Call) (view.Outcome, error) {
			return view.Name("menu/regist"), nil
		}),
		g.Post("/regist", regist, binding.Model[Menu]("menu")),
		g.Use(stopWatch(), "/menu/**"),
	)
}

func registerOrder(g *dispatch.Group) error {
	detail := func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		svc, err := bean[*OrderService](call, orderServiceBean)
		if err != nil {
			return nil, err
		}
		no := dispatch.Arg[int](call, 0)
		o, ok := svc.Find(no)
		if !ok {
			return nil, fmt.Errorf("order %d: %w", no, errOrderNotFound)
		}
		return view.ForwardTo("order/detail", map[string]any{"orderNo": no, "order": o}), nil
	}

	g.Exceptions().
		On(exception.Sentinel(errOrderNotFound), "order/missing").
		On(exception.KindOf(mvcerrors.KindTypeConversion), "order/missing")

	return g.Get("/detail/{orderNo}", detail, binding.Path[int]("orderNo"))
}

func registerMember(g *dispatch.Group) error {
	login := func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		id := dispatch.Arg[string](call, 0)
		if id == "" {
			return view.Redirect{Path: "/member/login"}.WithFlash("message", "enter a member id"), nil
		}
		call.Session.Set(loginAttribute, id)
		return view.Name("redirect:/member/mypage"), nil
	}

	mypage := func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		return view.ForwardTo("member/mypage", map[string]any{"member": dispatch.Arg[string](call, 0)}), nil
	}

	logout := func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		call.Session.Invalidate()
		return view.Name("redirect:/"), nil
	}

	g.Exceptions().On(exception.KindOf(mvcerrors.KindMissingParameter), "redirect:/member/login")

	return errors.Join(
		g.Get("/login", func(context.Context, *dispatch.Call) (view.Outcome, error) {
			return view.Name("member/login"), nil
		}),
		g.Post("/login", login, binding.Query[string]("id", binding.Default(""))),
		g.Get("/mypage", mypage, binding.Session[string](loginAttribute, binding.Required())),
		g.Post("/logout", logout),
	)
}

func registerFile(g *dispatch.Group) error {
	single := func(_ context.Context, call *dispatch.Call) (view.Outcome, error) {
		svc, err := bean[*FileService](call, fileServiceBean)
		if err != nil {
			return nil, err
		}
		dto, err := svc.Save(dispatch.Arg[UploadForm](call, 0))
		if err != nil {
			return nil, err
		}
		return view.Redirect{Path: "/file/result"}.WithFlash("file", dto), nil
	}

	g.Exceptions().On(exception.TypeOf[*FileUploadError](), "file/upload")

	return errors.Join(
		g.Get("/upload", func(context.Context, *dispatch.Call) (view.Outcome, error) {
			return view.Name("file/upload"), nil
		}),
		g.Post("/single-file", single, binding.Model[UploadForm]("upload")),
		g.Get("/result", func(context.Context, *dispatch.Call) (view.Outcome, error) {
			return view.Name("file/result"), nil
		}),
	)
}

// registerExceptions mounts handlers that always fail. The "/exception"
// group handles its failures locally; the root routes fall through to
// the global table.
func registerExceptions(d *dispatch.Dispatcher) error {
	var nilMenu *Menu
	nullPointer := func(context.Context, *dispatch.Call) (view.Outcome, error) {
		return view.Name(nilMenu.Name), nil
	}
	memberRegist := func(context.Context, *dispatch.Call) (view.Outcome, error) {
		return nil, &MemberRegistError{Message: "we cannot accept you as a member"}
	}
	parse := func(context.Context, *dispatch.Call) (view.Outcome, error) {
		price, err := strconv.Atoi("three thousand")
		if err != nil {
			return nil, err
		}
		return view.ForwardTo("main", map[string]any{"price": price}), nil
	}

	local := d.Group("/exception")
	local.Exceptions().
		On(exception.TypeOf[runtime.Error](), "error/nullPointer").
		On(exception.TypeOf[*MemberRegistError](), "error/memberRegist")

	d.Exceptions().
		On(exception.TypeOf[runtime.Error](), "error/nullPointer").
		On(exception.TypeOf[*MemberRegistError](), "error/memberRegist").
		On(exception.Any(), "error/default")

	return errors.Join(
		local.Get("/controller-null", nullPointer),
		local.Get("/controller-user", memberRegist),
		d.Get("/other-controller-null", nullPointer),
		d.Get("/other-controller-user", memberRegist),
		d.Get("/other-controller-parse", parse),
	)
}

// stopWatch adds the handler's running time to rendered models.
func stopWatch() dispatch.Interceptor {
	return func(ctx context.Context, call *dispatch.Call, next dispatch.Handler) (view.Outcome, error) {
		start := time.Now()
		out, err := next(ctx, call)
		if fwd, ok := out.(view.Forward); ok && err == nil {
			out = fwd.With("interval", time.Since(start).Round(time.Microsecond).String())
		}
		return out, err
	}
}
