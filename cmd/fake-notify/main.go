package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/isstrack/internal/fakenotify"
	"github.com/okian/isstrack/pkg/logger"
)

const defaultAddr = ":8089"

func main() {
	def := fakenotify.DefaultConfig()
	var (
		addr        = flag.String("addr", defaultAddr, "Listen address")
		period      = flag.Duration("period", def.Period, "Orbital period")
		inclination = flag.Float64("inclination", def.Inclination, "Orbit inclination in degrees")
		nodeLon     = flag.Float64("node-lon", def.Longitude0, "Longitude of the ascending node at the epoch")
		passes      = flag.Int("passes", def.Passes, "Pass predictions returned after the metadata entry")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fakenotify.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		os.Stderr.WriteString("listen failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := def
	cfg.Period = *period
	cfg.Inclination = *inclination
	cfg.Longitude0 = *nodeLon
	cfg.Passes = *passes

	if err := fakenotify.Serve(ctx, ln, cfg); err != nil {
		os.Stderr.WriteString("fake-notify failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
