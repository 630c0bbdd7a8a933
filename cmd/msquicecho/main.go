// msquicecho is an echo server and client running on the msquic binding.
//
// The server echoes every stream back to the peer and finishes its side when
// the peer does. The client opens one stream, sends a message and prints the
// echoed bytes.
//
// Settings come from defaults, then an optional TOML file (--config), then
// command line flags.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OkutaniDaichi0106/gomsquic/msquic"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	flags := defaultConfig()

	fs := pflag.NewFlagSet("msquicecho", pflag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "TOML configuration file")
	registerFlags(fs, &flags)

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := resolveConfig(fs, flags, configPath)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := msquic.Open(&msquic.Config{
		LibraryPath: cfg.Library,
		AppName:     "msquicecho",
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer reg.Close()

	if cfg.Mode == "server" {
		return runServer(ctx, reg, cfg, logger)
	}

	reply, err := runClient(ctx, reg, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Println(string(reply))
	return nil
}
