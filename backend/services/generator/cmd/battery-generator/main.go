package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"batterypower/backend/libs/batterycsv"
	"batterypower/backend/libs/logging"
	"batterypower/backend/services/generator/internal/config"
	"batterypower/backend/services/generator/internal/generator"
	"batterypower/backend/services/generator/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	output := flag.String("output", cfg.Output, "CSV file to write")
	days := flag.Int("days", cfg.Days, "number of days to simulate, ending now")
	interval := flag.Duration("interval", cfg.Interval, "time between samples")
	seed := flag.Int64("seed", cfg.Seed, "random seed, 0 uses the current time")
	capacity := flag.Float64("capacity", cfg.CapacityKW, "battery capacity in kW")
	initial := flag.Float64("initial-level", cfg.InitialLevel, "starting battery level in percent")
	notifyURL := flag.String("notify", cfg.NotifyURL, "battery service base URL to reload after writing")
	flag.Parse()

	cfg.Output, cfg.Days, cfg.Interval, cfg.Seed = *output, *days, *interval, *seed
	cfg.CapacityKW, cfg.InitialLevel, cfg.NotifyURL = *capacity, *initial, *notifyURL
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger("generator")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("generator failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	samples, err := generator.Generate(generator.Params{
		End:          time.Now(),
		Days:         cfg.Days,
		Interval:     cfg.Interval,
		CapacityKW:   cfg.CapacityKW,
		InitialLevel: cfg.InitialLevel,
	}, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	if err := batterycsv.WriteFile(cfg.Output, samples); err != nil {
		return err
	}
	logger.Info("battery data written",
		zap.String("output", cfg.Output),
		zap.Int("rows", len(samples)),
		zap.Int64("seed", seed),
	)

	if cfg.NotifyURL == "" {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msg, err := notify.New(cfg.NotifyURL, nil).TriggerLoad(ctx)
	if err != nil {
		return err
	}
	logger.Info("battery service reloaded", zap.String("url", cfg.NotifyURL), zap.String("message", msg))
	return nil
}
