package onchain

// balance.go — Wallet balance and allowance reads on Polygon.
//
// Implements ports.BalanceProvider. Read-only: setting allowances is an
// explicit one-time wallet operation the agent never performs itself.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Contratos USDC en Polygon (6 decimales).
const (
	usdcEAddress      = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	usdcNativeAddress = "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"
)

// Contratos exchange de Polymarket que necesitan allowance.
const (
	ctfExchange        = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	negRiskCTFExchange = "0xC5d563A36AE78145C45a50134d48A1215220f80a"
	negRiskAdapter     = "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{"name":"balanceOf","type":"function",
		 "inputs":[{"name":"account","type":"address"}],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"allowance","type":"function",
		 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
		 "outputs":[{"name":"","type":"uint256"}]}
	]`))
	if err != nil {
		panic("erc20 abi: " + err.Error())
	}
}

// Wallet reads balances and allowances for one address via RPC.
type Wallet struct {
	rpc     *ethclient.Client
	address common.Address
}

// NewWallet dials the RPC endpoint and derives the address from the
// private key.
func NewWallet(rpcURL, privateKeyHex string) (*Wallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("onchain: invalid private key: %w", err)
	}

	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain: dial rpc: %w", err)
	}

	return &Wallet{rpc: rpc, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the wallet address.
func (w *Wallet) Address() string {
	return w.address.Hex()
}

// USDCBalance devuelve el balance total de USDC (USDC.e + nativo) en USD.
// Si uno de los dos contratos falla, suma el otro y sigue.
func (w *Wallet) USDCBalance(ctx context.Context) (float64, error) {
	var total float64
	var lastErr error
	ok := 0

	for _, token := range []string{usdcEAddress, usdcNativeAddress} {
		bal, err := w.erc20BalanceOf(ctx, token)
		if err != nil {
			slog.Warn("usdc balance check failed", "contract", token, "err", err)
			lastErr = err
			continue
		}
		total += bal
		ok++
	}

	if ok == 0 {
		return 0, fmt.Errorf("onchain.USDCBalance: %w", lastErr)
	}
	return total, nil
}

// NativeBalance devuelve el balance de POL para gas.
func (w *Wallet) NativeBalance(ctx context.Context) (float64, error) {
	raw, err := w.rpc.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return 0, fmt.Errorf("onchain.NativeBalance: %w", err)
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e18)).Float64()
	return f, nil
}

// allowanceApprovedThreshold: consideramos "aprobado" un allowance > 2^128.
var allowanceApprovedThreshold = new(big.Int).Lsh(big.NewInt(1), 128)

// CheckAllowances reports whether USDC allowances are set for the
// Polymarket exchange contracts. Keys look like "USDC.e->CTF_EXCHANGE".
func (w *Wallet) CheckAllowances(ctx context.Context) (map[string]bool, error) {
	tokens := []struct{ label, addr string }{
		{"USDC.e", usdcEAddress},
		{"USDC", usdcNativeAddress},
	}
	spenders := []struct{ label, addr string }{
		{"CTF_EXCHANGE", ctfExchange},
		{"NEG_RISK_CTF", negRiskCTFExchange},
		{"NEG_RISK_ADAPTER", negRiskAdapter},
	}

	results := make(map[string]bool, len(tokens)*len(spenders))
	for _, t := range tokens {
		for _, s := range spenders {
			key := t.label + "->" + s.label
			val, err := w.erc20Allowance(ctx, t.addr, s.addr)
			if err != nil {
				results[key] = false
				slog.Warn("allowance check failed", "pair", key, "err", err)
				continue
			}
			results[key] = val.Cmp(allowanceApprovedThreshold) > 0
		}
	}
	return results, nil
}

func (w *Wallet) erc20BalanceOf(ctx context.Context, tokenAddr string) (float64, error) {
	callData, err := erc20ABI.Pack("balanceOf", w.address)
	if err != nil {
		return 0, fmt.Errorf("pack balanceOf: %w", err)
	}

	token := common.HexToAddress(tokenAddr)
	result, err := w.rpc.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return 0, fmt.Errorf("rpc call: %w", err)
	}

	vals, err := erc20ABI.Unpack("balanceOf", result)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("unpack balanceOf: %w", err)
	}

	raw := vals[0].(*big.Int)
	bal, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), big.NewFloat(1e6)).Float64()
	return bal, nil
}

func (w *Wallet) erc20Allowance(ctx context.Context, tokenAddr, spenderAddr string) (*big.Int, error) {
	callData, err := erc20ABI.Pack("allowance", w.address, common.HexToAddress(spenderAddr))
	if err != nil {
		return nil, fmt.Errorf("pack allowance: %w", err)
	}

	token := common.HexToAddress(tokenAddr)
	result, err := w.rpc.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}

	vals, err := erc20ABI.Unpack("allowance", result)
	if err != nil || len(vals) == 0 {
		return nil, fmt.Errorf("unpack allowance: %w", err)
	}
	return vals[0].(*big.Int), nil
}
