package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ens"
	"github.com/Mohsinsiddi/tokenlaunch/internal/session"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const unavailable = "unavailable"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the connected account, network, balance and gas price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout)
		defer cancel()

		if _, err := a.session.Restore(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, a.statusBlock(ctx, a.session.Snapshot()))
		return nil
	},
}

// statusBlock looks up balance, gas price and fiat value concurrently.
// Lookups that fail show as unavailable.
func (a *app) statusBlock(ctx context.Context, snap session.Snapshot) string {
	if !snap.Session.Connected {
		pairs := [][2]string{{"State", snap.State.String()}}
		if a.keyed == nil {
			pairs = append(pairs, [2]string{"Wallet", "none - run `tokenlaunch wallet generate <name>`"})
		} else {
			pairs = append(pairs, [2]string{"Wallet", "run `tokenlaunch connect`"})
		}
		return ui.KeyValueBlock("Session", pairs)
	}

	pairs := [][2]string{
		{"State", snap.State.String()},
		{"Account", snap.Session.Account},
	}
	if snap.Network == nil {
		pairs = append(pairs, [2]string{"Network", fmt.Sprintf("unsupported chain %d", snap.Session.ChainID)})
		return ui.KeyValueBlock("Session", pairs)
	}
	n := snap.Network
	pairs = append(pairs, [2]string{"Network", networkLabel(n)})

	var (
		bal      *big.Int
		gasPrice *big.Int
		fiat     string
		ensName  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := a.session.Balance(gctx)
		if err != nil {
			logger.Debug("balance lookup", zap.Error(err))
			return nil
		}
		bal = b
		if v, err := a.prices.Value(gctx, n, b); err == nil {
			fiat = formatFiat(v, a.prices.Currency())
		}
		return nil
	})
	g.Go(func() error {
		p, err := a.session.SuggestGasPrice(gctx)
		if err != nil {
			logger.Debug("gas price lookup", zap.Error(err))
			return nil
		}
		gasPrice = p
		return nil
	})

	if n.ChainID == ens.ChainID && a.keyed != nil {
		g.Go(func() error {
			b, err := a.keyed.Backend(gctx)
			if err != nil {
				return nil
			}
			if name, err := ens.ReverseLookup(gctx, b, common.HexToAddress(snap.Session.Account)); err == nil {
				ensName = name
			}
			return nil
		})
	}

	s := ui.NewSpinnerTo(a.out, "Querying "+n.DisplayName+"...")
	s.Start()
	_ = g.Wait()
	s.Stop()

	if ensName != "" {
		pairs[1][1] += " (" + ensName + ")"
	}
	balance := unavailable
	if bal != nil {
		balance = chain.FormatNative(bal) + " " + n.NativeCurrency
		if fiat != "" {
			balance += "  (" + fiat + ")"
		}
	}
	gas := unavailable
	if gasPrice != nil {
		gas = fmt.Sprintf("%.2f gwei", chain.WeiToGwei(gasPrice))
	}
	pairs = append(pairs,
		[2]string{"Balance", balance},
		[2]string{"Gas price", gas},
		[2]string{"Wallet type", snap.WalletType},
	)
	if u := n.AddressURL(snap.Session.Account); u != "" {
		pairs = append(pairs, [2]string{"Explorer", u})
	}
	return ui.KeyValueBlock("Session", pairs)
}

func formatFiat(v float64, currency string) string {
	if currency == "usd" {
		return fmt.Sprintf("~$%.2f", v)
	}
	return fmt.Sprintf("~%.2f %s", v, currency)
}
