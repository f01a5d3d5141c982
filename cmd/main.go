package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/control"
	"github.com/scheerer/led-foot/internal/lights"
	"github.com/scheerer/led-foot/internal/logging"
	"github.com/scheerer/led-foot/internal/render"
	"github.com/scheerer/led-foot/internal/state"
	"github.com/scheerer/led-foot/internal/util"
)

var logger = logging.New("main")

// Plays a single color, sequence file or fade through the LED controller and
// exits once it has finished.
func main() {
	defer logger.Sync()

	serialPort := util.Getenv("SERIAL_PORT", "")
	target := util.Getenv("COLOR", color.Black)
	sequenceFile := util.Getenv("SEQUENCE", "")
	fade := util.Getenv("FADE", time.Duration(0))
	logLevel := util.Getenv("LOG_LEVEL", "info")

	if err := logging.SetLevelAll(logLevel); err != nil {
		logger.With(zap.Error(err)).Warn("Ignoring LOG_LEVEL")
	}

	logger.With(
		zap.String("SERIAL_PORT", serialPort),
		zap.Stringer("COLOR", target),
		zap.String("SEQUENCE", sequenceFile),
		zap.Stringer("FADE", fade)).
		Info("Starting preview")
	logger.Info("Set SEQUENCE to a gradient image or breakpoint file to play it. Otherwise COLOR is faded in.")
	logger.Info("Set FADE to fade out over that duration afterwards.")
	logger.Info("Leave SERIAL_PORT empty to preview on the console.")

	console := lights.NewConsole(os.Stdout)
	var link lights.Link = console
	if serialPort != "" {
		link = lights.OpenSerial(lights.SerialConfig{
			Name:        serialPort,
			Baud:        util.Getenv("SERIAL_BAUD", 9600),
			ReadTimeout: util.Getenv("SERIAL_TIMEOUT", 2*time.Second),
		}, console)
	}
	defer link.Close()

	st := state.New(color.Black)
	controller := control.New(st, ".")

	if sequenceFile != "" {
		info, err := controller.SetSequenceFile(sequenceFile)
		if err != nil {
			logger.With(zap.Error(err)).Fatal("Failed to load sequence")
		}
		if info.Repeat {
			logger.Info("Sequence repeats, press Ctrl+C to stop")
		}
	} else {
		controller.SetColor(target)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logger.Info("Shutting down")
		cancel()
	}()

	loop := render.New(st, link, render.DefaultConfig())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := loop.Run(ctx); err != nil {
			logger.With(zap.Error(err)).Error("Render loop stopped")
		}
		cancel()
	}()

	waitIdle(ctx, st)
	if fade > 0 && ctx.Err() == nil {
		controller.FadeOut(fade)
		waitIdle(ctx, st)
	}
	st.Shutdown()
	<-stopped
}

// waitIdle blocks until no sequence is playing.
func waitIdle(ctx context.Context, st *state.State) {
	for st.Snapshot().Active() {
		select {
		case <-ctx.Done():
			return
		case <-st.Changed():
		case <-time.After(100 * time.Millisecond):
		}
	}
}
