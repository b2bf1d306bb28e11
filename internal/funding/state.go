package funding

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion is bumped whenever AgentState gains or changes fields.
// Loads map only the fields the current schema knows; unknown keys in the
// file are ignored and missing keys keep their zero/default values, so old
// binaries can read new files and vice versa.
const SchemaVersion = 1

// maxTradeHistory bounds the persisted trade log to the most recent entries.
const maxTradeHistory = 1000

// TradeRecord is one entry in the bounded trade history.
type TradeRecord struct {
	PnL           float64   `json:"pnl"`
	APICost       float64   `json:"api_cost"`
	BankrollAfter float64   `json:"bankroll_after"`
	Timestamp     time.Time `json:"timestamp"`
}

// AgentState is the single persisted source of truth for the agent's
// finances and survival status. It is owned exclusively by the
// SelfFundingManager and DeathCheck; every mutation is followed by an atomic
// full-state persist before the mutating call returns.
type AgentState struct {
	SchemaVersion    int           `json:"schema_version"`
	StartingBankroll float64       `json:"starting_bankroll"`
	CurrentBankroll  float64       `json:"current_bankroll"`
	TotalTrades      int           `json:"total_trades"`
	WinningTrades    int           `json:"winning_trades"`
	LosingTrades     int           `json:"losing_trades"`
	TotalPnL         float64       `json:"total_pnl"`
	TotalAPICost     float64       `json:"total_api_cost"`
	TotalFees        float64       `json:"total_fees"`
	PositionsOpen    int           `json:"positions_open"`
	StartedAt        time.Time     `json:"started_at"`
	LastCycleAt      time.Time     `json:"last_cycle_at"`
	CyclesCompleted  int           `json:"cycles_completed"`
	IsAlive          bool          `json:"is_alive"`
	TradeHistory     []TradeRecord `json:"trade_history"`
}

// NewAgentState creates a fresh alive state with the given bankroll.
func NewAgentState(startingBankroll float64) *AgentState {
	return &AgentState{
		SchemaVersion:    SchemaVersion,
		StartingBankroll: startingBankroll,
		CurrentBankroll:  startingBankroll,
		StartedAt:        time.Now().UTC(),
		IsAlive:          true,
	}
}

// StateStore persists AgentState as a flat JSON document with atomic
// replace semantics: the file on disk is always a complete, consistent
// snapshot of the last finished mutation.
type StateStore struct {
	path string
}

// NewStateStore creates a store writing to the given path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path devuelve la ruta del state file.
func (s *StateStore) Path() string {
	return s.path
}

// Save writes the full state atomically: marshal, write a temp file in the
// same directory, fsync, rename over the target. A crash mid-write leaves
// the previous snapshot intact.
func (s *StateStore) Save(state *AgentState) error {
	state.SchemaVersion = SchemaVersion

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("funding.Save: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".agent_state-*.json")
	if err != nil {
		return fmt.Errorf("funding.Save: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("funding.Save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("funding.Save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("funding.Save: close: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("funding.Save: rename: %w", err)
	}
	return nil
}

// Load reads the state file if present, or creates a fresh state with the
// given starting bankroll. Unknown keys in the file are ignored; missing
// keys default — forward-compatible reads across schema versions.
// A corrupt file is treated as absent (logged), never fatal.
func (s *StateStore) Load(startingBankroll float64) *AgentState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("state file unreadable, starting fresh", "path", s.path, "err", err)
		}
		return NewAgentState(startingBankroll)
	}

	state := NewAgentState(startingBankroll)
	if err := json.Unmarshal(data, state); err != nil {
		slog.Warn("state file corrupt, starting fresh", "path", s.path, "err", err)
		return NewAgentState(startingBankroll)
	}

	if state.StartedAt.IsZero() {
		state.StartedAt = time.Now().UTC()
	}
	if len(state.TradeHistory) > maxTradeHistory {
		state.TradeHistory = state.TradeHistory[len(state.TradeHistory)-maxTradeHistory:]
	}
	return state
}
