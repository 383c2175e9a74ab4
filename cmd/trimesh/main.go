// Command trimesh evaluates a mesh script and writes the resulting meshes
// as JSON, in the payload format a frontend viewer consumes.
//
// Usage:
//
//	trimesh [-config trimesh.toml] [-o out.json] script.lisp
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/trimesh/pkg/app"
	"github.com/chazu/trimesh/pkg/config"
	"github.com/chazu/trimesh/pkg/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("trimesh", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML configuration file")
	outPath := fs.String("o", "", "write JSON to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: trimesh [-config file] [-o file] script")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			return err
		}
	}

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	result := app.New(cfg).Evaluate(string(source))
	for _, w := range result.Warnings {
		logging.Warn("%s", w.Message)
	}

	if *outPath == "" {
		if err := writeResult(stdout, result); err != nil {
			return err
		}
	} else if err := writeResultFile(*outPath, result); err != nil {
		return err
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%s: %d errors, first: %s", fs.Arg(0), len(result.Errors), result.Errors[0].Message)
	}
	logging.Info("wrote %d meshes", len(result.Meshes))
	return nil
}

func writeResult(w io.Writer, result app.EvalResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// writeResultFile writes result to path, reporting a failed close.
func writeResultFile(path string, result app.EvalResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writeResult(f, result); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
