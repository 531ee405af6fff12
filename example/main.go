// Example runs a JavaScript application in a native window.
//
// The script configures its window through the global sappConfig object,
// drives per-frame work via setTimeout/setInterval, and renders through
// the on_frame hook:
//
//	go run ./example -app app.js
//
// An options file can replace the flags:
//
//	go run ./example -options uijet.toml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/uijet/uijet"
	"github.com/uijet/uijet/backend/opengl"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		appPath     = flag.String("app", "", "application unit (JavaScript source)")
		bytecode    = flag.Bool("bytecode", false, "treat -app as precompiled bytecode")
		bundle      = flag.Bool("bundle", false, "bundle ES module imports with esbuild")
		development = flag.Bool("dev", false, "set NODE_ENV=development")
		optionsPath = flag.String("options", "", "TOML options file (overrides other flags)")
	)
	flag.Parse()

	var opts uijet.Options
	if *optionsPath != "" {
		var err error
		opts, err = uijet.LoadOptions(*optionsPath)
		if err != nil {
			return err
		}
	} else {
		opts = uijet.Options{
			AppPath:     *appPath,
			Bytecode:    *bytecode,
			Bundle:      *bundle,
			Development: *development,
		}
	}
	if opts.AppPath == "" {
		return fmt.Errorf("no application unit: pass -app or -options")
	}

	session, err := uijet.NewSession(opts)
	if err != nil {
		return err
	}
	defer session.Close()

	return opengl.Run(session)
}
