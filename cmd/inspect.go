package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/contract"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ens"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	inspectNetwork string
	inspectHolder  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <token-address>",
	Short: "Read a token's name, symbol and supply from the chain",
	Long: `Read an ERC-20 token straight from the chain. No wallet is needed.

  tokenlaunch inspect 0x5FbDB2315678afecb367f032d93F642f64180aa3 --network base
  tokenlaunch inspect 0x5FbD... --holder alice.eth`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("%q is not a token address", args[0])
		}
		addr := common.HexToAddress(args[0])

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ref := inspectNetwork
		if ref == "" {
			ref = cfg.DefaultNetwork
		}
		n, err := a.networks.Resolve(ref)
		if err != nil {
			return fmt.Errorf("unknown network %q, run `tokenlaunch network list`: %w", ref, err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout)
		defer cancel()

		b, err := a.dial(ctx, n)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", n.DisplayName, err)
		}
		r := contract.NewReader(b)

		s := ui.NewSpinnerTo(a.out, "Reading token on "+n.DisplayName+"...")
		s.Start()
		info, err := r.Token(ctx, addr)
		s.Stop()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Token", fmt.Sprintf("%s (%s)", info.Name, info.Symbol)},
			{"Contract", info.Address.Hex()},
			{"Network", networkLabel(n)},
			{"Decimals", fmt.Sprintf("%d", info.Decimals)},
			{"Total supply", chain.FormatUnits(info.TotalSupply, info.Decimals)},
		}

		if inspectHolder != "" {
			holder, label, err := a.holderAddress(ctx, inspectHolder)
			if err != nil {
				return err
			}
			bal, err := r.BalanceOf(ctx, addr, holder)
			if err != nil {
				return err
			}
			pairs = append(pairs, [2]string{"Balance of " + label, chain.FormatUnits(bal, info.Decimals) + " " + info.Symbol})
		}
		if u := n.AddressURL(info.Address.Hex()); u != "" {
			pairs = append(pairs, [2]string{"Explorer", u})
		}
		fmt.Fprintln(a.out, ui.KeyValueBlock(info.Symbol, pairs))
		return nil
	},
}

// holderAddress accepts an address or an ENS name.
func (a *app) holderAddress(ctx context.Context, ref string) (common.Address, string, error) {
	if common.IsHexAddress(ref) {
		addr := common.HexToAddress(ref)
		return addr, ui.TruncateAddr(addr.Hex()), nil
	}
	if !ens.IsName(ref) {
		return common.Address{}, "", fmt.Errorf("--holder %q is neither an address nor an ENS name", ref)
	}
	addr, err := a.resolveName(ctx, ref)
	if err != nil {
		return common.Address{}, "", err
	}
	return addr, ref, nil
}

func init() {
	inspectCmd.Flags().StringVar(&inspectNetwork, "network", "", "network name or chain ID (default: config default_network)")
	inspectCmd.Flags().StringVar(&inspectHolder, "holder", "", "also show the balance of this address or ENS name")
}
