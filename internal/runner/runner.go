// Package runner holds what the calibrate subcommands share: environment and
// config loading, logger setup, quote store access and the calibration run.
package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/meenmo/curvecal/calibration"
	"github.com/meenmo/curvecal/config"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/internal/logging"
	"github.com/meenmo/curvecal/internal/request"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/marketdata/pgstore"
	"github.com/meenmo/curvecal/provider"
)

// storeTimeout bounds all quote store queries of one run.
const storeTimeout = 30 * time.Second

// Env is the per-run setup.
type Env struct {
	Config config.Config
	Logger *zap.Logger
	RunID  string
}

// Setup loads .env, the optional YAML config and CURVECAL_* overrides, then
// builds the run logger tagged with a fresh run id.
func Setup(configPath string, override func(*config.Config)) (*Env, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := config.Default()
	if p := strings.TrimSpace(configPath); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	return &Env{Config: cfg, Logger: logger.With(zap.String("run", runID)), RunID: runID}, nil
}

// Result is a calibrated request.
type Result struct {
	ValuationDate time.Time
	Measures      calibration.Measures
	Provider      *provider.RatesProvider
	Jacobians     map[curve.Name]*curve.JacobianCalibrationMatrix
}

// Calibrate resolves market data (request quotes over stored quotes) and
// calibrates every group of req.
func (e *Env) Calibrate(req request.Request) (*Result, error) {
	valDate, err := req.Date()
	if err != nil {
		return nil, err
	}

	var storedQuotes *marketdata.ImmutableMarketData
	var storedFixings map[string]marketdata.TimeSeries
	if e.Config.QuoteStore.DSN != "" {
		storedQuotes, storedFixings, err = loadStore(e.Config.QuoteStore, valDate, req.ForwardIndices())
		if err != nil {
			return nil, err
		}
		e.Logger.Info("quote store loaded", zap.Int("quotes", storedQuotes.Len()), zap.Int("fixings", len(storedFixings)))
	}

	md := req.MarketData(valDate, storedQuotes)
	known, err := req.KnownData(valDate, storedFixings)
	if err != nil {
		return nil, err
	}
	groups, err := req.CurveGroups()
	if err != nil {
		return nil, err
	}

	cc, err := e.Config.CalibratorConfig()
	if err != nil {
		return nil, err
	}
	calibrator, err := calibration.NewCurveCalibrator(cc, calibration.WithLogger(e.Logger))
	if err != nil {
		return nil, err
	}
	p, jacobians, err := calibrator.Calibrate(groups, known, md)
	if err != nil {
		e.Logger.Error("calibration failed", zap.Error(err))
		return nil, err
	}
	return &Result{ValuationDate: valDate, Measures: cc.Measures, Provider: p, Jacobians: jacobians}, nil
}

func loadStore(sc config.QuoteStoreConfig, valDate time.Time, indices []string) (*marketdata.ImmutableMarketData, map[string]marketdata.TimeSeries, error) {
	store, err := pgstore.Open(sc.DSN, sc.Table)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	quotes, err := store.LoadQuotes(ctx, valDate)
	if err != nil {
		return nil, nil, err
	}
	fixings := make(map[string]marketdata.TimeSeries, len(indices))
	for _, idx := range indices {
		ts, err := store.LoadFixings(ctx, idx, valDate.AddDate(-1, 0, 0), valDate)
		if err != nil {
			return nil, nil, err
		}
		if ts.Len() > 0 {
			fixings[idx] = ts
		}
	}
	return quotes, fixings, nil
}
