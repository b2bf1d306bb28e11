package funding_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/polyagent/internal/funding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeathCheck_AliveAboveThreshold(t *testing.T) {
	mgr, _ := newTestManager(t, 100, nil)
	death := funding.NewDeathCheck(mgr, 5.0)

	assert.False(t, death.IsDead())
	assert.True(t, mgr.State().IsAlive)
}

func TestDeathCheck_DiesAtThreshold(t *testing.T) {
	mgr, store := newTestManager(t, 100, nil)
	death := funding.NewDeathCheck(mgr, 5.0)

	mgr.State().CurrentBankroll = 5.0

	require.True(t, death.IsDead())
	assert.False(t, mgr.State().IsAlive)

	// La transición viva->muerta persiste antes de volver: un crash justo
	// después del check no puede resucitar al agente.
	loaded := store.Load(100)
	assert.False(t, loaded.IsAlive)
}

func TestDeathCheck_DeathIsTerminal(t *testing.T) {
	mgr, _ := newTestManager(t, 100, nil)
	death := funding.NewDeathCheck(mgr, 5.0)

	mgr.State().CurrentBankroll = 1.0
	require.True(t, death.IsDead())

	// Ni una recuperación del balance revive al agente.
	mgr.State().CurrentBankroll = 500.0
	assert.True(t, death.IsDead())
}

func TestDeathCheck_StaysDeadAcrossRestart(t *testing.T) {
	store := tempStore(t)
	state := funding.NewAgentState(100)
	state.IsAlive = false
	require.NoError(t, store.Save(state))

	reloaded := store.Load(100)
	mgr := funding.NewManager(reloaded, store, &fakeBalance{}, 0.05, 5.0)
	death := funding.NewDeathCheck(mgr, 5.0)

	assert.True(t, death.IsDead())
}

func TestDeathCheck_SurvivalBurnDown(t *testing.T) {
	// $50 de salida, $2 por ciclo y umbral de $0.50: el agente paga 24
	// ciclos completos y muere antes del 25.
	mgr, _ := newTestManager(t, 50, nil)
	death := funding.NewDeathCheck(mgr, 0.50)

	cycles := 0
	for !death.IsDead() {
		mgr.RecordCycleCost(2.0)
		cycles++
		require.Less(t, cycles, 100, "burn-down must terminate")
	}

	assert.Equal(t, 25, cycles)
	assert.False(t, mgr.State().IsAlive)
}

func TestDeathCheck_HealthReport(t *testing.T) {
	store := tempStore(t)
	state := funding.NewAgentState(100)
	mgr := funding.NewManager(state, store, &fakeBalance{}, 0.25, 5.0)
	death := funding.NewDeathCheck(mgr, 5.0)

	mgr.RecordTrade(10, 1)

	report := death.HealthReport()
	assert.Contains(t, report, "[ALIVE]")
	assert.Contains(t, report, "bankroll=$109.00")
	assert.Contains(t, report, "pnl=$+10.00")
	assert.Contains(t, report, "cost=$1.00")
	assert.Contains(t, report, "net=$+9.00")
	assert.Contains(t, report, "trades=1")
	assert.Contains(t, report, "cycles=0")
	// runway = floor((109-5)/0.25)
	assert.Contains(t, report, "runway=416 cycles")

	mgr.State().CurrentBankroll = 2.0
	require.True(t, death.IsDead())
	report = death.HealthReport()
	assert.Contains(t, report, "[DEAD]")
	assert.Contains(t, report, "runway=0 cycles")
}

func TestDeathCheck_HealthReportNetSurvivesReconciliation(t *testing.T) {
	// Un overwrite del bankroll desde la chain no es resultado de trading:
	// el neto sigue siendo P&L - costes de API.
	store := tempStore(t)
	state := funding.NewAgentState(100)
	bal := &fakeBalance{balance: 200}
	mgr := funding.NewManager(state, store, bal, 0.25, 5.0)
	death := funding.NewDeathCheck(mgr, 5.0)

	mgr.RecordTrade(10, 1)
	mgr.SyncBalanceFromChain(context.Background())

	report := death.HealthReport()
	assert.Contains(t, report, "bankroll=$200.00")
	assert.Contains(t, report, "net=$+9.00")
}
