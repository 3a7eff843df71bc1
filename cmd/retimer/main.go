// retimer runs Lua scripts against reschedulable timers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/drake/retimer/config"
	"github.com/drake/retimer/debug"
	"github.com/drake/retimer/session"
)

func main() {
	timeout := flag.Duration("timeout", 0, "Stop after this long (0 = no limit)")
	stay := flag.Bool("stay", false, "Keep running when no timer is pending")
	noInit := flag.Bool("no-init", false, "Skip init.lua in the config directory")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: retimer [flags] script.lua...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	cfg := session.Config{
		Scripts:      flag.Args(),
		ExitWhenIdle: !*stay,
	}
	if !*noInit {
		cfg.InitFile = config.InitFile()
	}

	s := session.New(cfg)
	debug.NewMonitor(ctx, s).Start()

	start := time.Now()
	err := s.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// Interrupted
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(os.Stderr, "retimer: timed out after %v\n", time.Since(start).Round(time.Millisecond))
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "retimer: %v\n", err)
		os.Exit(1)
	}
}
