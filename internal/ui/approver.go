package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/provider"
)

// PromptApprover asks the user on the terminal before the wallet grants
// accounts, changes networks or signs.
type PromptApprover struct {
	prompter *Prompter
	out      io.Writer
	networks *chain.Registry
}

// NewPromptApprover returns an approver that prints details to out and
// reads the answer from p.
func NewPromptApprover(p *Prompter, out io.Writer, networks *chain.Registry) *PromptApprover {
	return &PromptApprover{prompter: p, out: out, networks: networks}
}

// Approve implements provider.Approver.
func (a *PromptApprover) Approve(ctx context.Context, req provider.ApprovalRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var question string
	switch req.Kind {
	case provider.ApproveConnect:
		addrs := make([]string, len(req.Accounts))
		for i, acc := range req.Accounts {
			addrs[i] = acc.Hex()
		}
		fmt.Fprintln(a.out, KeyValueBlock("Connection request", [][2]string{
			{"Accounts", strings.Join(addrs, ", ")},
		}))
		question = "Connect these accounts to tokenlaunch?"

	case provider.ApproveSwitchChain:
		question = fmt.Sprintf("Switch wallet network to %s?", a.chainLabel(req.ChainID))

	case provider.ApproveAddChain:
		if req.Chain == nil {
			return false, nil
		}
		fmt.Fprintln(a.out, KeyValueBlock("Add network", [][2]string{
			{"Name", req.Chain.ChainName},
			{"Chain ID", fmt.Sprintf("%d", req.Chain.ChainID)},
			{"Currency", req.Chain.NativeCurrency.Symbol},
			{"RPC", strings.Join(req.Chain.RPCURLs, ", ")},
			{"Explorer", strings.Join(req.Chain.BlockExplorerURLs, ", ")},
		}))
		question = "Add this network to the wallet?"

	case provider.ApproveSign:
		if req.Tx == nil {
			return false, nil
		}
		fmt.Fprintln(a.out, KeyValueBlock("Signature request", a.txPairs(req)))
		question = "Sign and send this transaction?"

	default:
		return false, fmt.Errorf("unknown approval kind %d", req.Kind)
	}

	return a.prompter.Confirm(question), nil
}

func (a *PromptApprover) chainLabel(id uint64) string {
	if a.networks != nil {
		if n, err := a.networks.ByChainID(id); err == nil {
			return fmt.Sprintf("%s (%d)", n.DisplayName, id)
		}
	}
	return fmt.Sprintf("chain %d", id)
}

func (a *PromptApprover) txPairs(req provider.ApprovalRequest) [][2]string {
	tx := req.Tx
	to := "contract creation"
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	currency := "native"
	if a.networks != nil {
		if n, err := a.networks.ByChainID(req.ChainID); err == nil {
			currency = n.NativeCurrency
		}
	}
	return [][2]string{
		{"Network", a.chainLabel(req.ChainID)},
		{"From", req.From.Hex()},
		{"To", to},
		{"Value", chain.FormatNative(tx.Value()) + " " + currency},
		{"Gas limit", fmt.Sprintf("%d", tx.Gas())},
		{"Gas price", fmt.Sprintf("%.2f gwei", chain.WeiToGwei(tx.GasPrice()))},
		{"Max fee", chain.FormatNative(chain.GasCost(tx.Gas(), tx.GasPrice())) + " " + currency},
		{"Data", fmt.Sprintf("%d bytes", len(tx.Data()))},
	}
}
