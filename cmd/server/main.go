/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package main

import (
	"context"
	"errors"
	"flag"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luckypaw-payments-go/internal/common"
	"luckypaw-payments-go/internal/config"
	"luckypaw-payments-go/internal/http"
	"luckypaw-payments-go/internal/listener"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	addrFlag := flag.String("addr", "", "Listen address (overrides HTTP_ADDR)")
	noReconciler := flag.Bool("no-reconciler", false, "Disable the background order reconciler")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *noReconciler {
		cfg.Reconciler.Interval = 0
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	zap.L().Info("Starting payments server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("ledger_backend", cfg.Ledger.Backend))

	osSignalChannel := make(chan os.Signal, 1)
	signal.Notify(osSignalChannel, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-osSignalChannel
		zap.L().Info("Received OS signal", zap.String("signal", sig.String()))
		cancel()
	}()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	reconciler := listener.NewReconciler(listener.ReconcilerConfig{
		Service:         services.Ledger,
		PollingInterval: cfg.Reconciler.Interval,
		LookbackWindow:  cfg.Reconciler.LookbackWindow,
		CleanupInterval: cfg.Reconciler.CleanupInterval,
	})
	reconciler.Start(ctx)

	e := echo.New()
	httpSvc := http.NewHttpService(services.Ledger, cfg.Server)
	httpSvc.RegisterRoutes(e)

	go func() {
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zap.L().Error("Echo server failed to start", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down echo server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shutdown echo server", zap.Error(err))
	}

	reconciler.Stop()
	zap.L().Info("Server exited")
}
