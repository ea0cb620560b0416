package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"luckypaw-payments-go/internal/api"
	"luckypaw-payments-go/internal/config"
	"luckypaw-payments-go/internal/database"
	"luckypaw-payments-go/internal/formance"
	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/rates"
	"luckypaw-payments-go/internal/speed"
	"luckypaw-payments-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	CashoutLedger store.CashoutLedger
	SpeedService  *speed.Service
	Games         *GamesCatalog
	Ledger        *api.LedgerService
}

// InitializeLogger installs the global zap logger. When a log file is configured
// entries are also written there, rotated by lumberjack.
func InitializeLogger(cfg models.LogConfig) (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	var rotator *lumberjack.Logger
	if cfg.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			zap.InfoLevel,
		)
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
		if rotator != nil {
			if err := rotator.Close(); err != nil {
				log.Printf("Failed to close log file: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the store, provider clients and lifecycle service
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	zap.L().Info("Initializing payment provider client",
		zap.String("base_url", cfg.Speed.BaseURL))
	speedService, err := speed.NewService(cfg.Speed)
	if err != nil {
		return nil, err
	}

	services, err := initialize(ctx, cfg, speedService)
	if err != nil {
		return nil, err
	}
	services.SpeedService = speedService

	if cfg.Speed.WebhookSecret == "" {
		zap.L().Warn("SPEED_WEBHOOK_SECRET is not set, every webhook delivery will be rejected")
	}
	return services, nil
}

// InitializeOperatorServices wires everything except the payment provider.
// Used by operator commands that only read or correct stored state.
func InitializeOperatorServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	return initialize(ctx, cfg, offlineProvider{})
}

func initialize(ctx context.Context, cfg *models.Config, provider api.PaymentProvider) (*Services, error) {
	games, err := LoadGames(cfg.Server.GamesFile)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	cashoutLedger, err := newCashoutLedger(ctx, cfg.Ledger, dbService)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	opts := api.Options{
		WebhookSecret: cfg.Speed.WebhookSecret,
		CashoutLimit:  cfg.Cashout.DailyLimit,
		CashoutWindow: cfg.Cashout.Window,
	}
	// a nil *GamesCatalog must not become a non-nil interface
	if games != nil {
		opts.Games = games
		zap.L().Info("Loaded games catalog", zap.Int("games", games.Len()))
	}

	ledger := api.NewLedgerService(dbService, cashoutLedger, provider, rates.NewService(cfg.Rates), opts)

	return &Services{
		DbService:     dbService,
		CashoutLedger: cashoutLedger,
		Games:         games,
		Ledger:        ledger,
	}, nil
}

func newCashoutLedger(ctx context.Context, cfg models.LedgerConfig, dbService *database.Service) (store.CashoutLedger, error) {
	if cfg.Backend != config.LedgerBackendFormance {
		zap.L().Info("Using SQLite cashout ledger")
		return dbService, nil
	}

	zap.L().Info("Using Formance cashout ledger",
		zap.String("stack_url", cfg.Formance.StackURL),
		zap.String("ledger", cfg.Formance.LedgerName))
	formanceService, err := formance.NewService(ctx, cfg.Formance)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize formance ledger: %w", err)
	}
	return formanceService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

// offlineProvider stands in for the payment provider when no credentials are loaded
type offlineProvider struct{}

var errProviderOffline = fmt.Errorf("%w: payment provider not configured", speed.ErrRequestFailed)

func (offlineProvider) CreatePayment(context.Context, decimal.Decimal, string) (models.PaymentResult, error) {
	return nil, errProviderOffline
}

func (offlineProvider) GetPayment(context.Context, string) (*models.SpeedPayment, error) {
	return nil, errProviderOffline
}

func (offlineProvider) DecodeInvoice(context.Context, string) (*models.InvoiceDetails, error) {
	return nil, errProviderOffline
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}

