package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/tebeka/atexit"

	"github.com/itohio/govfd/pkg/adc"
	"github.com/itohio/govfd/pkg/board"
	"github.com/itohio/govfd/pkg/companion"
	"github.com/itohio/govfd/pkg/config"
	"github.com/itohio/govfd/pkg/control"
	"github.com/itohio/govfd/pkg/telemetry"
)

// run wires the simulated board, the control loop and the companion
// services, and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	brd := board.NewSim()
	sampler := adc.NewSim(cfg.Sim, adc.NewConverter(cfg.ADC), cfg.Sampling.MonitoringFrequency)
	if err := sampler.Open(); err != nil {
		return fmt.Errorf("open sampler: %w", err)
	}

	sys, err := control.Init(cfg, control.Hardware{
		Pins:    brd,
		Output:  brd,
		Sampler: sampler,
		Duties:  brd,
	})
	if err != nil {
		sampler.Close()
		return fmt.Errorf("init: %w", err)
	}
	atexit.Register(func() {
		if err := sys.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
		sampler.Close()
	})

	comp := companion.New(sys.Store(), sys)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	spawn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("%s: %v", name, err)
			}
		}()
	}

	loopErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		loopErr <- sys.Run(ctx)
	}()

	if cfg.Serial.Port != "" {
		link := companion.NewLink(comp, companion.OpenSerial(cfg.Serial.Port, cfg.Serial.BaudRate), cfg.Recording.Interval)
		spawn("serial", link.Run)
	}

	if cfg.HTTP.Listen != "" {
		srv := &http.Server{Addr: cfg.HTTP.Listen, Handler: companion.NewRouter(comp)}
		spawn("http", func(ctx context.Context) error {
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
			log.Printf("HTTP API listening on %s", cfg.HTTP.Listen)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	if cfg.Recording.Enabled {
		db, err := telemetry.OpenSQLite(cfg.Recording.Database, cfg.Recording.BatchSize)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("open recording: %w", err)
		}
		log.Printf("Recording telemetry to %s", db.Path())
		atexit.Register(func() {
			if err := db.Close(); err != nil {
				log.Printf("close recording: %v", err)
			}
		})
		spawn("recorder", telemetry.New(sys.Store(), cfg.Recording, db).Run)
	}

	select {
	case <-ctx.Done():
		err = nil
	case err = <-loopErr:
	}
	cancel()
	wg.Wait()

	ticks, stale := sys.Stats()
	log.Printf("Control loop stopped after %d ticks (%d stale samples dropped)", ticks, stale)
	return err
}
