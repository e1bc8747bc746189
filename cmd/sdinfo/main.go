// Copyright 2026 The go-sdspi Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdspi "github.com/kvthr/go-sdspi"
	"github.com/kvthr/go-sdspi/transport/spi"
)

type config struct {
	spiPort    string
	csPin      string
	detectPin  string
	activeHigh bool
	watch      bool
	debug      bool
}

var (
	flagSPIPort    string
	flagCSPin      string
	flagDetectPin  string
	flagActiveHigh bool
	flagWatch      bool
	flagDebug      bool
)

func init() {
	flag.StringVar(&flagSPIPort, "spi", "/dev/spidev0.0", "SPI port device path")
	flag.StringVar(&flagCSPin, "cs", "GPIO8", "chip-select GPIO pin name")
	flag.StringVar(&flagDetectPin, "detect", "GPIO25", "card-detect GPIO pin name")
	flag.BoolVar(&flagActiveHigh, "detect-active-high", false, "card-detect input is active-high")
	flag.BoolVar(&flagWatch, "watch", false, "keep running and report insert/eject events")
	flag.BoolVar(&flagDebug, "debug", false, "enable debug output")
}

func parseConfig() *config {
	return &config{
		spiPort:    flagSPIPort,
		csPin:      flagCSPin,
		detectPin:  flagDetectPin,
		activeHigh: flagActiveHigh,
		watch:      flagWatch,
		debug:      flagDebug,
	}
}

func connectDriver(cfg *config) (*sdspi.Driver, *spi.Bus, error) {
	bus, err := spi.Open(cfg.spiPort)
	if err != nil {
		return nil, nil, fmt.Errorf("open SPI port %s: %w", cfg.spiPort, err)
	}

	gpio, err := spi.OpenGPIO(cfg.csPin, cfg.detectPin, cfg.activeHigh)
	if err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("open GPIO pins: %w", err)
	}

	driver, err := sdspi.New(bus, gpio, spi.Clock{})
	if err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("construct driver: %w", err)
	}
	return driver, bus, nil
}

func printCardInfo(driver *sdspi.Driver) {
	status := driver.Initialize()
	if status.Has(sdspi.StatusNoDisk) {
		_, _ = fmt.Println("No card present.")
		return
	}
	if status.Has(sdspi.StatusNotInitialized) {
		_, _ = fmt.Println("Card present but initialization failed.")
		return
	}

	_, _ = fmt.Printf("Card type:      %s\n", driver.CardType())
	_, _ = fmt.Printf("CRC enabled:    %t\n", driver.CRCEnabled())
	_, _ = fmt.Printf("Write protect:  %t\n", status.Has(sdspi.StatusWriteProtected))

	sectors, err := driver.SectorCount()
	if err != nil {
		_, _ = fmt.Printf("Sector count:   unavailable (%v)\n", err)
		return
	}
	const bytesPerSector = 512
	_, _ = fmt.Printf("Sector count:   %d (%.1f MiB)\n", sectors, float64(sectors)*bytesPerSector/(1<<20))
}

func watchCard(ctx context.Context, driver *sdspi.Driver) {
	_, _ = fmt.Println("Watching for card insert/eject events. Press Ctrl+C to stop...")
	lastAbsent := driver.Status().Has(sdspi.StatusNoDisk)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := driver.Status()
			absent := status.Has(sdspi.StatusNoDisk)
			if absent == lastAbsent {
				continue
			}
			lastAbsent = absent
			if absent {
				_, _ = fmt.Println("Card removed.")
				continue
			}
			_, _ = fmt.Println("Card inserted:")
			printCardInfo(driver)
		}
	}
}

func run(ctx context.Context, cfg *config) error {
	if cfg.debug {
		sdspi.SetDebugEnabled(true)
	}

	driver, bus, err := connectDriver(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := bus.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to close SPI port: %v\n", closeErr)
		}
	}()

	printCardInfo(driver)

	if cfg.watch {
		watchCard(ctx, driver)
	}
	return nil
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg := parseConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Print("\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
