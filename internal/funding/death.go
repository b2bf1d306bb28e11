package funding

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// DeathCheck decide si el agente sigue vivo. La muerte es terminal: una vez
// que is_alive pasa a false se persiste y no hay resurrección, ni siquiera
// si el balance on-chain sube después.
type DeathCheck struct {
	manager   *Manager
	threshold float64
}

// NewDeathCheck creates a death check against the given funding ledger.
func NewDeathCheck(manager *Manager, threshold float64) *DeathCheck {
	return &DeathCheck{manager: manager, threshold: threshold}
}

// IsDead reports whether the agent is dead. On the alive->dead transition
// it persists is_alive=false BEFORE returning, so a crash right after the
// check cannot resurrect the agent on restart.
func (d *DeathCheck) IsDead() bool {
	st := d.manager.State()
	if !st.IsAlive {
		return true
	}
	if st.CurrentBankroll > d.threshold {
		return false
	}

	st.IsAlive = false
	d.manager.persist()
	slog.Error("agent died: bankroll depleted",
		"bankroll", st.CurrentBankroll,
		"threshold", d.threshold,
		"cycles_survived", st.CyclesCompleted,
		"total_pnl", st.TotalPnL,
	)
	return true
}

// HealthReport devuelve una línea con bankroll, P&L, costes, beneficio neto
// y runway (cuántos ciclos más puede pagar el agente al coste estimado).
// El neto es P&L menos costes de API, no la delta de bankroll: la
// reconciliación on-chain puede mover el bankroll sin que sea resultado
// de trading.
func (d *DeathCheck) HealthReport() string {
	st := d.manager.State()
	netProfit := st.TotalPnL - st.TotalAPICost
	runway := 0
	if d.manager.cycleCostEstimate > 0 {
		runway = int(math.Floor((st.CurrentBankroll - d.threshold) / d.manager.cycleCostEstimate))
		if runway < 0 {
			runway = 0
		}
	}

	status := "ALIVE"
	if !st.IsAlive {
		status = "DEAD"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] bankroll=$%.2f pnl=$%+.2f cost=$%.2f net=$%+.2f trades=%d cycles=%d runway=%d cycles",
		status, st.CurrentBankroll, st.TotalPnL, st.TotalAPICost, netProfit,
		st.TotalTrades, st.CyclesCompleted, runway)
	if !st.LastCycleAt.IsZero() {
		fmt.Fprintf(&sb, " last_cycle=%s", st.LastCycleAt.Format(time.RFC3339))
	}
	return sb.String()
}
