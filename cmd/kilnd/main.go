// SPDX-License-Identifier: BSD-3-Clause

// Command kilnd runs the furnace controller: it reads its pin map and
// runtime parameters from flags (falling back to internal/config's
// defaults), then starts the supervision tree built by internal/operator
// and blocks until it receives SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kilnctl/kilnctl/internal/config"
	"github.com/kilnctl/kilnctl/internal/operator"
	"github.com/kilnctl/kilnctl/pkg/clock"
	"github.com/kilnctl/kilnctl/pkg/log"
)

func main() {
	var (
		gpioChip    = flag.String("gpio-chip", config.DefaultGPIOChip, "GPIO character device path")
		heaterPin   = flag.Int("heater-pin", config.DefaultHeaterPin, "heater SSR GPIO line")
		tc1CSPin    = flag.Int("tc1-cs-pin", config.DefaultTC1CSPin, "TC1 chip-select GPIO line")
		tc1CLKPin   = flag.Int("tc1-clk-pin", config.DefaultTC1CLKPin, "shared thermocouple clock GPIO line")
		tc1DOPin    = flag.Int("tc1-do-pin", config.DefaultTC1DOPin, "TC1 data-out GPIO line")
		tc2CSPin    = flag.Int("tc2-cs-pin", config.DefaultTC2CSPin, "TC2 chip-select GPIO line")
		tc2DOPin    = flag.Int("tc2-do-pin", config.DefaultTC2DOPin, "TC2 data-out GPIO line")
		vacuumPin   = flag.Int("vacuum-pin", config.DefaultVacuumPin, "vacuum pump relay GPIO line")
		fanPin      = flag.Int("fan-pin", config.DefaultFanPin, "cooling fan GPIO line")
		doorPin     = flag.Int("door-pin", config.DefaultDoorPin, "door interlock input GPIO line")
		emergPin    = flag.Int("emergency-pin", config.DefaultEmergPin, "emergency-stop input GPIO line")
		tickPeriod  = flag.Duration("tick-period", config.DefaultTickPeriod, "controller loop period")
		catalogPath = flag.String("catalog-path", config.DefaultCatalogPath, "program catalog JSON document path")
		httpAddr    = flag.String("http-addr", config.DefaultHTTPAddr, "HTTP command surface listen address")
		serviceName = flag.String("service-name", config.DefaultServiceName, "NATS micro service name")
		simulate    = flag.Bool("simulate", false, "force the simulated GPIO and thermocouple backend")
	)
	flag.Parse()

	cfg := config.New(
		config.WithGPIOChip(*gpioChip),
		config.WithHeaterPin(*heaterPin),
		config.WithTC1Pins(*tc1CSPin, *tc1CLKPin, *tc1DOPin),
		config.WithTC2Pins(*tc2CSPin, *tc2DOPin),
		config.WithVacuumPin(*vacuumPin),
		config.WithFanPin(*fanPin),
		config.WithInterlockPins(*doorPin, *emergPin),
		config.WithTickPeriod(*tickPeriod),
		config.WithCatalogPath(*catalogPath),
		config.WithHTTPAddr(*httpAddr),
		config.WithSimulate(*simulate),
	)
	cfg.ServiceName = *serviceName

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "kilnd: invalid configuration:", err)
		os.Exit(1)
	}

	logger := log.GetGlobalLogger()

	op, err := operator.New(cfg, clock.NewReal())
	if err != nil {
		logger.Error("kilnd: build operator", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("kilnd starting", "gpio_chip", cfg.GPIOChip, "tick_period", cfg.TickPeriod, "http_addr", cfg.HTTPAddr, "simulate", cfg.Simulate)

	if err := op.Run(ctx, nil); err != nil && ctx.Err() == nil {
		logger.Error("kilnd: supervision tree exited", "error", err)
		os.Exit(1)
	}

	logger.Info("kilnd stopped")
}
