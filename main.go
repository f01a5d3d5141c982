package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/caarlos0/env"
	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/control"
	"github.com/scheerer/led-foot/internal/lights"
	"github.com/scheerer/led-foot/internal/lights/lifx"
	"github.com/scheerer/led-foot/internal/logging"
	"github.com/scheerer/led-foot/internal/render"
	"github.com/scheerer/led-foot/internal/schedule"
	"github.com/scheerer/led-foot/internal/state"
)

var (
	logger = logging.New("main")
	config = LedFootConfig{}
)

type LedFootConfig struct {
	SerialPort    string        `env:"SERIAL_PORT" envDefault:"/dev/ttyACM0"`
	SerialBaud    int           `env:"SERIAL_BAUD" envDefault:"9600"`
	SerialTimeout time.Duration `env:"SERIAL_TIMEOUT" envDefault:"2s"`
	IdlePoll      time.Duration `env:"IDLE_POLL" envDefault:"10ms"`
	SequenceDir   string        `env:"SEQUENCE_DIR" envDefault:"sequences"`
	ScheduleFile  string        `env:"SCHEDULE_FILE" envDefault:"schedule.json"`
	ScheduleTick  time.Duration `env:"SCHEDULE_TICK" envDefault:"1s"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	StartColor    string        `env:"START_COLOR"`

	LifxGroupName     string        `env:"LIFX_GROUP_NAME"`
	LifxMinBrightness float64       `env:"LIFX_MIN_BRIGHTNESS" envDefault:"0"`
	LifxMaxBrightness float64       `env:"LIFX_MAX_BRIGHTNESS" envDefault:"1"`
	MirrorInterval    time.Duration `env:"MIRROR_INTERVAL" envDefault:"250ms"`
}

func main() {
	defer logger.Sync()

	err := env.Parse(&config)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}
	if err := logging.SetLevelAll(config.LogLevel); err != nil {
		logger.With(zap.Error(err)).Warn("Ignoring LOG_LEVEL")
	}

	logger.With(zap.Any("config", config)).Info("Starting led-foot")
	logger.Info("Adjust SERIAL_PORT to point at the LED controller. Without one, colors are printed to the console.")
	logger.Info("Adjust SEQUENCE_DIR to change where gradient images and breakpoint files are found.")
	logger.Info("Set LIFX_GROUP_NAME to mirror the current color to a group of LIFX lights.")
	logger.Info("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(context.Background())
	st := state.New(color.Black)

	done := make(chan error, 1)
	go func() { done <- Run(ctx, config, st) }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-shutdown:
		logger.Info("Shutting down")
		st.Shutdown()
		cancel()
		<-done
	case err := <-done:
		cancel()
		if errors.Is(err, render.ErrLoopPanicked) {
			logger.With(zap.Error(err)).Fatal("Render loop died")
		}
	}
}

// Run wires the hardware link, scheduler and optional LIFX mirror around the
// render loop and blocks until the loop exits.
func Run(ctx context.Context, config LedFootConfig, st *state.State) error {
	link := lights.OpenSerial(lights.SerialConfig{
		Name:        config.SerialPort,
		Baud:        config.SerialBaud,
		ReadTimeout: config.SerialTimeout,
	}, lights.NewConsole(os.Stdout))
	defer link.Close()

	controller := control.New(st, config.SequenceDir)
	if config.StartColor != "" {
		c, err := color.ParseHex(config.StartColor, 0)
		if err != nil {
			logger.With(zap.Error(err)).Warn("Ignoring START_COLOR")
		} else {
			controller.SetColor(c)
		}
	}

	scheduler := schedule.New(config.ScheduleFile, controller)
	go scheduler.Run(ctx, config.ScheduleTick)

	var opts []render.Option
	if config.LifxGroupName != "" {
		lightService, err := lifx.NewLifx(ctx, lifx.Config{
			GroupName:     config.LifxGroupName,
			MinBrightness: config.LifxMinBrightness,
			MaxBrightness: config.LifxMaxBrightness,
		})
		if err != nil {
			logger.With(zap.Error(err)).Error("Failed to create LIFX light service, continuing without it")
		} else {
			mirror := lights.NewMirror(lightService, config.MirrorInterval)
			go mirror.Run(ctx)
			opts = append(opts, render.WithMirror(mirror))
		}
	}

	loop := render.New(st, link, render.Config{IdlePoll: config.IdlePoll}, opts...)
	return loop.Run(ctx)
}
