// meshconvert converts DirectX SDKMESH containers to Wavefront OBJ.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Faultbox/meshconvert/internal/config"
	"github.com/Faultbox/meshconvert/internal/convert"
	"github.com/Faultbox/meshconvert/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.ParseFlags(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage()
			return nil
		}
		printUsage()
		return err
	}
	if config.HelpRequested() {
		printUsage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	defer logger.Sync()

	if config.SaveRequested() {
		path, err := cfg.Save()
		if err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		logger.Info("config saved", zap.String("path", path))
	}

	inputs := config.Inputs()
	if len(inputs) == 0 {
		if config.SaveRequested() {
			return nil
		}
		printUsage()
		return errors.New("no input files")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv, err := convert.New(convert.Options{
		Config: cfg,
		Output: config.OutputPath(),
		Stdout: os.Stdout,
		Logger: logger.Log,
	})
	if err != nil {
		return err
	}

	if config.InfoOnly() {
		return conv.Describe(ctx, os.Stdout, inputs)
	}

	logger.Debug("starting", zap.Int("patterns", len(inputs)), zap.String("code_page", cfg.Text.CodePage))
	err = conv.Run(ctx, inputs)
	if r := conv.Report(); len(r.Entries) > 1 {
		logger.Info("done", zap.Int("inputs", len(r.Entries)), zap.Int("failed", r.Failed()))
	}
	return err
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `meshconvert - SDKMESH to OBJ converter

Usage:
  meshconvert [flags] <input>...

Inputs are files, directories or glob patterns. Inputs ending in .zst, .lz4
or .gz are decompressed on the fly.

Flags:
%s
Examples:
  meshconvert tiny.sdkmesh
  meshconvert -r --out-dir obj --materials "assets/*.sdkmesh"
  meshconvert -o - --flip-v box.sdkmesh.zst > box.obj
  meshconvert --info box.sdkmesh
`, config.FlagUsages())
}
