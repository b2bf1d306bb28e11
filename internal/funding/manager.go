package funding

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/polyagent/internal/ports"
)

// balanceDriftThreshold es la deriva mínima (USD) entre el bankroll trackeado
// y el balance on-chain que fuerza una reconciliación.
const balanceDriftThreshold = 0.50

// Manager is the authoritative ledger: it is the only writer of AgentState
// besides DeathCheck, and every mutation persists before returning. A failed
// persist is logged, not fatal — in-memory state stays authoritative until
// the next successful write.
type Manager struct {
	state             *AgentState
	store             *StateStore
	balance           ports.BalanceProvider
	cycleCostEstimate float64
	deathThreshold    float64
}

// NewManager creates a funding manager over the given state and store.
func NewManager(state *AgentState, store *StateStore, balance ports.BalanceProvider, cycleCostEstimate, deathThreshold float64) *Manager {
	return &Manager{
		state:             state,
		store:             store,
		balance:           balance,
		cycleCostEstimate: cycleCostEstimate,
		deathThreshold:    deathThreshold,
	}
}

// State devuelve el estado actual. Solo lectura para el resto del sistema.
func (m *Manager) State() *AgentState {
	return m.state
}

// Bankroll returns the current authoritative bankroll.
func (m *Manager) Bankroll() float64 {
	return m.state.CurrentBankroll
}

// RecordTrade records a completed trade: counters, bankroll, bounded
// history, persist.
func (m *Manager) RecordTrade(pnl, apiCostIncrement float64) {
	m.state.TotalTrades++
	m.state.TotalPnL += pnl
	m.state.TotalAPICost += apiCostIncrement

	if pnl > 0 {
		m.state.WinningTrades++
	} else {
		m.state.LosingTrades++
	}

	m.state.CurrentBankroll += pnl - apiCostIncrement
	m.state.TradeHistory = append(m.state.TradeHistory, TradeRecord{
		PnL:           pnl,
		APICost:       apiCostIncrement,
		BankrollAfter: m.state.CurrentBankroll,
		Timestamp:     time.Now().UTC(),
	})
	if len(m.state.TradeHistory) > maxTradeHistory {
		m.state.TradeHistory = m.state.TradeHistory[len(m.state.TradeHistory)-maxTradeHistory:]
	}

	m.persist()
}

// RecordCycleCost deducts the metered estimation cost of one cycle —
// charged even when no trade happened — and advances the cycle counter.
func (m *Manager) RecordCycleCost(apiCost float64) {
	m.state.TotalAPICost += apiCost
	m.state.CurrentBankroll -= apiCost
	m.state.CyclesCompleted++
	m.state.LastCycleAt = time.Now().UTC()
	m.persist()
}

// CanAffordCycle reports whether the bankroll covers one more estimated
// cycle without crossing the death threshold.
func (m *Manager) CanAffordCycle() bool {
	return m.state.CurrentBankroll > m.cycleCostEstimate+m.deathThreshold
}

// SyncBalanceFromChain reconciles the tracked bankroll against the on-chain
// balance. On drift above the threshold the external truth wins outright —
// this is a reconciliation, not a merge; it corrects for resolved bets,
// deposits and withdrawals the internal ledger cannot observe. A failed
// query leaves the ledger untouched.
func (m *Manager) SyncBalanceFromChain(ctx context.Context) {
	onChain, err := m.balance.USDCBalance(ctx)
	if err != nil {
		slog.Warn("balance sync failed", "err", err)
		return
	}
	if onChain <= 0 {
		return
	}

	drift := math.Abs(onChain - m.state.CurrentBankroll)
	if drift <= balanceDriftThreshold {
		return
	}

	slog.Info("balance sync",
		"tracked", m.state.CurrentBankroll,
		"on_chain", onChain,
		"drift", drift,
	)
	m.state.CurrentBankroll = onChain
	m.persist()
}

// Summary devuelve un resumen legible del estado del agente.
func (m *Manager) Summary() string {
	st := m.state
	winRate := 0.0
	if st.TotalTrades > 0 {
		winRate = float64(st.WinningTrades) / float64(st.TotalTrades) * 100
	}
	roi := 0.0
	if st.StartingBankroll > 0 {
		roi = (st.CurrentBankroll - st.StartingBankroll) / st.StartingBankroll * 100
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Agent status\n")
	fmt.Fprintf(&sb, "  Bankroll:  $%.2f (started: $%.2f)\n", st.CurrentBankroll, st.StartingBankroll)
	fmt.Fprintf(&sb, "  P&L:       $%+.2f | ROI: %+.1f%%\n", st.TotalPnL, roi)
	fmt.Fprintf(&sb, "  Trades:    %d (W:%d L:%d WR:%.0f%%)\n", st.TotalTrades, st.WinningTrades, st.LosingTrades, winRate)
	fmt.Fprintf(&sb, "  API costs: $%.2f\n", st.TotalAPICost)
	fmt.Fprintf(&sb, "  Cycles:    %d\n", st.CyclesCompleted)
	fmt.Fprintf(&sb, "  Alive since: %s\n", st.StartedAt.Format(time.RFC3339))
	return sb.String()
}

// persist writes the full state; a failure leaves in-memory state
// authoritative until the next successful write.
func (m *Manager) persist() {
	if err := m.store.Save(m.state); err != nil {
		slog.Error("state persist failed — in-memory state remains authoritative", "err", err)
	}
}
