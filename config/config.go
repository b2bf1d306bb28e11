package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del agente. Se construye una vez en main
// y se pasa por referencia a cada constructor — ningún componente lee estado global.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Trading TradingConfig `yaml:"trading"`
	API     APIConfig     `yaml:"api"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// AgentConfig controla el ciclo de vida y la supervivencia del agente.
type AgentConfig struct {
	ScanIntervalSeconds int     `yaml:"scan_interval_seconds"`
	StartingBankroll    float64 `yaml:"starting_bankroll"`
	DeathThresholdUSD   float64 `yaml:"death_threshold_usd"`
	CycleCostEstimate   float64 `yaml:"cycle_cost_estimate"` // USD por ciclo, para runway y can-afford
	StatePath           string  `yaml:"state_path"`
	MaxMarketsPerScan   int     `yaml:"max_markets_per_scan"`
	MaxCandidates       int     `yaml:"max_candidates"` // mercados enviados al estimador por ciclo
}

// TradingConfig controla detección y sizing.
type TradingConfig struct {
	MinEdge         float64 `yaml:"min_edge"`          // edge mínimo absoluto, e.g. 0.08
	MinConfidence   float64 `yaml:"min_confidence"`    // confianza mínima del estimador
	MaxPositionPct  float64 `yaml:"max_position_pct"`  // cap por trade como fracción del bankroll
	KellyMultiplier float64 `yaml:"kelly_multiplier"`  // fractional Kelly, e.g. 0.25
	MaxExposurePct  float64 `yaml:"max_exposure_pct"`  // techo agregado por ciclo
	MinTradeUSD     float64 `yaml:"min_trade_usd"`     // dust floor
	MaxSlippagePct  float64 `yaml:"max_slippage_pct"`  // guard pre-trade sobre entry price
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"` // filtro del scan
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	CLOBBase      string `yaml:"clob_base"`
	GammaBase     string `yaml:"gamma_base"`
	RPCURL        string `yaml:"rpc_url"`
	AnthropicBase string `yaml:"anthropic_base"`
	ClaudeModel   string `yaml:"claude_model"`
}

// WalletConfig contiene las credenciales. Solo desde env, nunca desde YAML.
type WalletConfig struct {
	PrivateKey      string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
}

// StorageConfig controla dónde se persiste el histórico.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores de entorno sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// Sin YAML: env + defaults bastan para arrancar
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Validate comprueba que las credenciales obligatorias están presentes.
func (c *Config) Validate() error {
	if c.Wallet.PrivateKey == "" {
		return fmt.Errorf("config: POLY_PRIVATE_KEY is required")
	}
	if c.Wallet.AnthropicAPIKey == "" {
		return fmt.Errorf("config: ANTHROPIC_API_KEY is required")
	}
	return nil
}

// ScanInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Agent.ScanIntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	cfg.Wallet.PrivateKey = os.Getenv("POLY_PRIVATE_KEY")
	cfg.Wallet.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")

	if v := os.Getenv("SCAN_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.ScanIntervalSeconds = n
		}
	}
	if v := os.Getenv("STARTING_BANKROLL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Agent.StartingBankroll = f
		}
	}
	if v := os.Getenv("DEATH_THRESHOLD_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Agent.DeathThresholdUSD = f
		}
	}
	if v := os.Getenv("MIN_EDGE_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.MinEdge = f / 100.0
		}
	}
	if v := os.Getenv("MAX_POSITION_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.MaxPositionPct = f / 100.0
		}
	}
	if v := os.Getenv("CLAUDE_MODEL"); v != "" {
		cfg.API.ClaudeModel = v
	}
	if v := os.Getenv("POLYGON_RPC_URL"); v != "" {
		cfg.API.RPCURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Agent.ScanIntervalSeconds <= 0 {
		cfg.Agent.ScanIntervalSeconds = 600
	}
	if cfg.Agent.StartingBankroll <= 0 {
		cfg.Agent.StartingBankroll = 50
	}
	if cfg.Agent.DeathThresholdUSD <= 0 {
		cfg.Agent.DeathThresholdUSD = 0.50
	}
	if cfg.Agent.CycleCostEstimate <= 0 {
		cfg.Agent.CycleCostEstimate = 2.0
	}
	if cfg.Agent.StatePath == "" {
		cfg.Agent.StatePath = "agent_state.json"
	}
	if cfg.Agent.MaxMarketsPerScan <= 0 {
		cfg.Agent.MaxMarketsPerScan = 1000
	}
	if cfg.Agent.MaxCandidates <= 0 {
		cfg.Agent.MaxCandidates = 80
	}
	if cfg.Trading.MinEdge <= 0 {
		cfg.Trading.MinEdge = 0.08
	}
	if cfg.Trading.MinConfidence <= 0 {
		cfg.Trading.MinConfidence = 0.4
	}
	if cfg.Trading.MaxPositionPct <= 0 {
		cfg.Trading.MaxPositionPct = 0.06
	}
	if cfg.Trading.KellyMultiplier <= 0 {
		cfg.Trading.KellyMultiplier = 0.25
	}
	if cfg.Trading.MaxExposurePct <= 0 {
		cfg.Trading.MaxExposurePct = 0.50
	}
	if cfg.Trading.MinTradeUSD <= 0 {
		cfg.Trading.MinTradeUSD = 1.0
	}
	if cfg.Trading.MaxSlippagePct <= 0 {
		cfg.Trading.MaxSlippagePct = 0.05
	}
	if cfg.Trading.MinLiquidityUSD <= 0 {
		cfg.Trading.MinLiquidityUSD = 500
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.RPCURL == "" {
		cfg.API.RPCURL = "https://polygon-rpc.com"
	}
	if cfg.API.AnthropicBase == "" {
		cfg.API.AnthropicBase = "https://api.anthropic.com"
	}
	if cfg.API.ClaudeModel == "" {
		cfg.API.ClaudeModel = "claude-sonnet-4-20250514"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyagent.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
