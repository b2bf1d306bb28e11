package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alejandrodnm/polyagent/config"
	"github.com/alejandrodnm/polyagent/internal/adapters/estimator"
	"github.com/alejandrodnm/polyagent/internal/adapters/notify"
	"github.com/alejandrodnm/polyagent/internal/adapters/onchain"
	"github.com/alejandrodnm/polyagent/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyagent/internal/adapters/storage"
	"github.com/alejandrodnm/polyagent/internal/agent"
	"github.com/alejandrodnm/polyagent/internal/engine"
	"github.com/alejandrodnm/polyagent/internal/funding"
	"github.com/olekukonko/tablewriter"
)

// minGasBalance es el POL mínimo antes de avisar en el preflight.
const minGasBalance = 0.01

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full signal table each cycle (default: compact 1-line)")
	historyDays := flag.Int("history", 0, "print the trade history of the last N days and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	// El histórico solo lee la base local: no necesita credenciales.
	if *historyDays > 0 {
		if err := printHistory(cfg.Storage.DSN, *historyDays); err != nil {
			slog.Error("failed to read trade history", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polyagent starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"starting_bankroll", fmt.Sprintf("$%.2f", cfg.Agent.StartingBankroll),
		"min_edge", cfg.Trading.MinEdge,
		"max_position_pct", cfg.Trading.MaxPositionPct,
		"death_threshold", fmt.Sprintf("$%.2f", cfg.Agent.DeathThresholdUSD),
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Adapters ---
	wallet, err := onchain.NewWallet(cfg.API.RPCURL, cfg.Wallet.PrivateKey)
	if err != nil {
		slog.Error("failed to init wallet", "err", err)
		os.Exit(1)
	}

	auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.Wallet.PrivateKey)
	if err != nil {
		slog.Error("failed to init clob auth", "err", err)
		os.Exit(1)
	}
	trader := polymarket.NewTradingClient(auth)
	scanner := polymarket.NewScanner(polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase),
		cfg.Agent.MaxMarketsPerScan, cfg.Trading.MinLiquidityUSD)

	// --- Pre-flight checks ---
	startingBankroll := preflight(ctx, cfg, wallet, trader)

	// --- State ---
	store := funding.NewStateStore(cfg.Agent.StatePath)
	state := store.Load(startingBankroll)

	fundingMgr := funding.NewManager(state, store, wallet, cfg.Agent.CycleCostEstimate, cfg.Agent.DeathThresholdUSD)
	death := funding.NewDeathCheck(fundingMgr, cfg.Agent.DeathThresholdUSD)

	audit, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open audit storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer audit.Close()

	est := estimator.New(cfg.API.AnthropicBase, cfg.Wallet.AnthropicAPIKey, cfg.API.ClaudeModel)

	// --- Engine ---
	detector := engine.NewMispricingDetector(cfg.Trading.MinEdge, cfg.Trading.MinConfidence)
	sizer := engine.NewKellyPositionSizer(engine.SizerConfig{
		MaxPositionPct:  cfg.Trading.MaxPositionPct,
		KellyMultiplier: cfg.Trading.KellyMultiplier,
		MaxExposurePct:  cfg.Trading.MaxExposurePct,
		MinTradeUSD:     cfg.Trading.MinTradeUSD,
	}, state.CurrentBankroll)
	executor := engine.NewTradeExecutor(auth, trader, engine.ExecutorConfig{
		MaxSlippagePct: cfg.Trading.MaxSlippagePct,
	})

	a := agent.New(scanner, est, detector, sizer, executor, fundingMgr, death,
		audit, notify.NewConsole(*table), agent.Config{
			ScanInterval:  cfg.ScanInterval(),
			MaxCandidates: cfg.Agent.MaxCandidates,
		})

	slog.Info("agent ready", "bankroll", fmt.Sprintf("$%.2f", state.CurrentBankroll))
	fmt.Println(death.HealthReport())

	if *once {
		if _, err := a.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(fundingMgr.Summary())
		return
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("agent exited with error", "err", err)
		os.Exit(1)
	}

	if err := store.Save(state); err != nil {
		slog.Warn("final state save failed", "err", err)
	}
	fmt.Println(fundingMgr.Summary())
	slog.Info("polyagent stopped cleanly")
}

// preflight verifica balance on-chain, allowances y conectividad del CLOB.
// Devuelve el bankroll inicial efectivo: si el balance real es menor que el
// configurado, se ajusta a la baja.
func preflight(ctx context.Context, cfg *config.Config, wallet *onchain.Wallet, trader *polymarket.TradingClient) float64 {
	startingBankroll := cfg.Agent.StartingBankroll

	balance, err := wallet.USDCBalance(ctx)
	if err != nil {
		slog.Warn("could not check on-chain balance, using configured bankroll",
			"err", err, "bankroll", fmt.Sprintf("$%.2f", startingBankroll))
	} else {
		slog.Info("on-chain balance", "usdc", fmt.Sprintf("$%.2f", balance), "wallet", wallet.Address())
		if balance < startingBankroll {
			slog.Warn("balance below configured bankroll, adjusting down",
				"balance", fmt.Sprintf("$%.2f", balance),
				"configured", fmt.Sprintf("$%.2f", startingBankroll))
			startingBankroll = balance
		}
	}

	// Las órdenes van firmadas off-chain, pero redimir posiciones o mover
	// fondos sigue necesitando gas.
	if native, err := wallet.NativeBalance(ctx); err != nil {
		slog.Warn("could not check native balance", "err", err)
	} else if native < minGasBalance {
		slog.Warn("low gas balance, on-chain operations may fail",
			"pol", fmt.Sprintf("%.4f", native))
	} else {
		slog.Info("gas balance", "pol", fmt.Sprintf("%.4f", native))
	}

	allowances, err := wallet.CheckAllowances(ctx)
	if err != nil {
		slog.Warn("could not check allowances", "err", err)
	} else {
		var missing []string
		for pair, approved := range allowances {
			if !approved {
				missing = append(missing, pair)
			}
		}
		// Basta con que USDC.e tenga allowances — el par nativo es opcional
		allMissing := true
		for pair, approved := range allowances {
			if strings.HasPrefix(pair, "USDC.e") && approved {
				allMissing = false
			}
		}
		if allMissing {
			slog.Error("no exchange allowances set, orders would be rejected", "missing", missing)
			os.Exit(1)
		}
		if len(missing) > 0 {
			slog.Warn("some allowances not set", "missing", missing)
		}
	}

	if !trader.CheckConnectivity(ctx) {
		slog.Error("CLOB API not reachable")
		os.Exit(1)
	}
	slog.Info("preflight ok", "clob", "connected")

	return startingBankroll
}

// printHistory vuelca los trades de los últimos days días del ledger.
func printHistory(dsn string, days int) error {
	audit, err := storage.NewSQLiteStorage(dsn)
	if err != nil {
		return err
	}
	defer audit.Close()

	ctx := context.Background()
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	trades, err := audit.GetTrades(ctx, from, to)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Printf("no trades in the last %d days\n", days)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Executed", "Cycle", "Market", "Side", "Entry", "Size", "Result")

	for _, tr := range trades {
		result := "FILLED " + tr.CLOBOrderID
		if !tr.Success {
			result = "FAIL: " + tr.Error
		}
		question := tr.Question
		if len(question) > 40 {
			question = question[:37] + "..."
		}
		table.Append(
			tr.ExecutedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", tr.Cycle),
			question,
			tr.Side,
			fmt.Sprintf("%.3f", tr.EntryPrice),
			fmt.Sprintf("$%.2f", tr.SizeUSD),
			result,
		)
	}
	table.Render()
	fmt.Printf("%d trades since %s\n", len(trades), from.Format("2006-01-02"))
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
