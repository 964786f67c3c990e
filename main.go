package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/km-arc/go-autowire/framework/app"
	gohttp "github.com/km-arc/go-autowire/framework/http"
	"github.com/km-arc/go-autowire/framework/routing"
	"github.com/km-arc/go-autowire/framework/types"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("go-autowire", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	envFile := fs.String("env", ".env", "dotenv file to load")
	compileTo := fs.String("compile", "", "write the compiled container plan to this file (.json, .yaml or .go) and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := types.NewRegistry()
	defineClasses(reg)

	application, err := app.New(reg, app.WithEnvFiles(*envFile))
	if err != nil {
		return err
	}
	defer func() { _ = application.Logger().Sync() }()

	if err := application.Register(&AppServiceProvider{}); err != nil {
		return err
	}

	if *compileTo != "" {
		plan, err := application.Compile()
		if err != nil {
			return err
		}
		return app.WritePlan(plan, *compileTo)
	}

	routes(application.Router())
	return application.Run()
}

func routes(r *routing.Router) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"message": "Welcome to go-autowire!"})
	})

	// GET/POST /api/v1/users, GET/PUT/PATCH/DELETE /api/v1/users/{id}
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Resource("/users", "UserController")
	})

	r.Group(func(protected *routing.Router) {
		protected.Middleware(AuthMiddleware)

		protected.Get("/profile", func(w http.ResponseWriter, req *http.Request) {
			gohttp.NewResponse(w).Success(map[string]any{"user": "authenticated"})
		})
	})
}

// AuthMiddleware is an example bearer-token guard.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gohttp.NewRequest(r).BearerToken() == "" {
			gohttp.NewResponse(w).Unauthorized()
			return
		}
		next.ServeHTTP(w, r)
	})
}
