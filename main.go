/*
Gardenia renders 3D garden beds and turns exports into photorealistic
images through a remote enhancer. Run as an HTTP server or as a one-shot
demo that writes a PNG.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spaghettifunk/gardenia/engine"
	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/server"
	"github.com/spaghettifunk/gardenia/testbed"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	mode := flag.String("mode", "server", "server or demo")
	out := flag.String("out", "demo.png", "where the demo writes its export")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			core.LogFatal("can not read configuration: %s", err)
		}
	}
	core.SetLogLevel(cfg.Log.Level)

	switch *mode {
	case "demo":
		if err := testbed.RunDemo(cfg, *out); err != nil {
			core.LogFatal("%s", err)
		}
	case "server":
		if err := serve(cfg); err != nil {
			core.LogFatal("%s", err)
		}
	default:
		core.LogFatal("unknown mode %q", *mode)
	}
}

func serve(cfg *config.Config) error {
	eng, err := engine.New(cfg, engine.ApplicationConfig{Name: "gardenia"})
	if err != nil {
		return err
	}
	if err := eng.Initialize(); err != nil {
		eng.Shutdown()
		return err
	}
	srv := server.New(eng)

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			core.LogError("%s", err)
		}
	}()

	err = srv.Start()
	if serr := eng.Shutdown(); serr != nil {
		core.LogError("%s", serr)
	}
	return err
}
