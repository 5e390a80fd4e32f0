package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/contract"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ens"
	"github.com/Mohsinsiddi/tokenlaunch/internal/session"
	"github.com/Mohsinsiddi/tokenlaunch/internal/sync"
	"github.com/Mohsinsiddi/tokenlaunch/internal/token"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// errCostLimit is returned when the estimate exceeds --max-cost.
var errCostLimit = errors.New("estimated cost exceeds --max-cost")

var (
	tokName        string
	tokSymbol      string
	tokSupply      string
	tokDecimals    uint8
	tokNetwork     string
	tokRecipient   string
	tokBurnable    bool
	tokPausable    bool
	tokDescription string
	tokImage       string
	tokFile        string
	tokArtifact    string
	deployDryRun   bool
	deployMaxCost  string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Compile a token and estimate what deploying it costs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.DeployTimeout)
		defer cancel()

		req, err := requestFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		p, err := a.prepare(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, a.previewBlock(ctx, p))
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a new ERC-20 token",
	Long: `Compile, sign and deploy a token through the connected wallet.

The token is described with flags or a YAML/JSON file (--file); flags given
alongside a file override it. tokenlaunch connects the wallet, switches it to
the token's network, shows the estimated cost and asks for confirmation
before anything is signed.

  tokenlaunch deploy --name "Pepe Coin" --symbol PEPE --supply 1000000 --network base
  tokenlaunch deploy --file pepe.yaml --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.DeployTimeout)
		defer cancel()

		req, err := requestFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		p, err := a.prepare(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, a.previewBlock(ctx, p))

		if err := checkMaxCost(p, deployMaxCost); err != nil {
			return err
		}
		if deployDryRun {
			fmt.Fprintln(a.out, ui.Meta("Dry run: nothing was sent."))
			return nil
		}
		if !assumeYes && !a.prompter.Confirm(fmt.Sprintf("Deploy %s to %s?", p.req.Symbol, p.network.DisplayName)) {
			fmt.Fprintln(a.out, ui.Meta("Cancelled."))
			return nil
		}

		_, err = a.deploy(ctx, p)
		return err
	},
}

// plan is a validated request with everything needed to deploy it.
type plan struct {
	req           token.Request
	recipientName string // ENS name the recipient was given as
	network       *chain.Network
	artifact      *token.Artifact
	deployer      common.Address
	args          []any
	estimate      session.GasEstimate
}

// requestFromFlags builds the request from --file, then applies any flags
// that were set explicitly.
func requestFromFlags(flags *pflag.FlagSet) (token.Request, error) {
	req := token.Request{Decimals: 18, Network: cfg.DefaultNetwork}
	if tokFile != "" {
		fromFile, err := token.LoadFile(tokFile)
		if err != nil {
			return token.Request{}, err
		}
		if fromFile.Network == "" {
			fromFile.Network = req.Network
		}
		req = fromFile
	}

	set := func(name string, apply func()) {
		if tokFile == "" || flags.Changed(name) {
			apply()
		}
	}
	set("name", func() { req.Name = tokName })
	set("symbol", func() { req.Symbol = strings.ToUpper(tokSymbol) })
	set("supply", func() { req.TotalSupply = tokSupply })
	set("recipient", func() { req.Recipient = tokRecipient })
	set("burnable", func() { req.Burnable = tokBurnable })
	set("pausable", func() { req.Pausable = tokPausable })
	set("description", func() { req.Description = tokDescription })
	set("image", func() { req.ImageURL = tokImage })
	if flags.Changed("decimals") {
		req.Decimals = tokDecimals
	}
	if flags.Changed("network") {
		req.Network = tokNetwork
	}
	return req, nil
}

// prepare validates the request, connects the wallet on the right network,
// builds the contract and estimates the deployment.
func (a *app) prepare(ctx context.Context, req token.Request) (*plan, error) {
	var recipientName string
	if ens.IsName(req.Recipient) {
		addr, err := a.resolveName(ctx, req.Recipient)
		if err != nil {
			return nil, fmt.Errorf("%w: recipient %q: %w", token.ErrInvalidRequest, req.Recipient, err)
		}
		logger.Debug("recipient resolved", zap.String("name", req.Recipient), zap.String("address", addr.Hex()))
		recipientName, req.Recipient = strings.ToLower(strings.TrimSpace(req.Recipient)), addr.Hex()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	n, err := req.ResolveNetwork(a.networks)
	if err != nil {
		return nil, err
	}

	sess, err := a.ensureConnected(ctx)
	if err != nil {
		return nil, err
	}
	if sess.ChainID != n.ChainID {
		if err := a.session.SwitchNetwork(ctx, n.ChainID); err != nil {
			return nil, shown(err)
		}
	}

	art, err := a.artifact(ctx, req)
	if err != nil {
		return nil, err
	}

	deployer := common.HexToAddress(a.session.Snapshot().Session.Account)
	args, err := token.ConstructorArgs(req, deployer)
	if err != nil {
		return nil, err
	}
	input, err := art.ConstructorInput(args...)
	if err != nil {
		return nil, fmt.Errorf("%w: constructor args: %w", session.ErrInvalidContract, err)
	}

	data := append(append([]byte{}, art.Bytecode...), input...)
	est, err := a.session.EstimateGas(ctx, data, nil)
	if err != nil {
		return nil, shown(err)
	}
	logger.Debug("deployment estimated",
		zap.String("symbol", req.Symbol),
		zap.Uint64("chain_id", n.ChainID),
		zap.Uint64("gas", est.GasLimit),
	)
	return &plan{req: req, recipientName: recipientName, network: n, artifact: art, deployer: deployer, args: args, estimate: est}, nil
}

// artifact loads --artifact or compiles the generated source with solc.
func (a *app) artifact(ctx context.Context, req token.Request) (*token.Artifact, error) {
	if tokArtifact != "" {
		return token.LoadArtifact(tokArtifact)
	}
	src, err := token.Source(req)
	if err != nil {
		return nil, err
	}
	s := ui.NewSpinnerTo(a.out, "Compiling "+token.ContractName+" with "+cfg.SolcPath+"...")
	s.Start()
	art, err := token.Solc{Path: cfg.SolcPath}.Compile(ctx, src)
	s.Stop()
	if err != nil {
		return nil, err
	}
	logger.Debug("compiled", zap.Int("bytecode_len", len(art.Bytecode)))
	return art, nil
}

func (a *app) previewBlock(ctx context.Context, p *plan) string {
	features := []string{}
	if p.req.Burnable {
		features = append(features, "burnable")
	}
	if p.req.Pausable {
		features = append(features, "pausable")
	}
	if len(features) == 0 {
		features = append(features, "none")
	}
	recipient := p.req.Recipient
	switch {
	case recipient == "":
		recipient = p.deployer.Hex() + " (deployer)"
	case p.recipientName != "":
		recipient += " (" + p.recipientName + ")"
	}

	cost := chain.FormatNative(p.estimate.Cost) + " " + p.network.NativeCurrency
	if v, err := a.prices.Value(ctx, p.network, p.estimate.Cost); err == nil {
		cost += "  (" + formatFiat(v, a.prices.Currency()) + ")"
	}

	return ui.KeyValueBlock("Token deployment", [][2]string{
		{"Token", fmt.Sprintf("%s (%s)", strings.TrimSpace(p.req.Name), p.req.Symbol)},
		{"Total supply", fmt.Sprintf("%s (%d decimals)", p.req.TotalSupply, p.req.Decimals)},
		{"Features", strings.Join(features, ", ")},
		{"Recipient", recipient},
		{"Network", networkLabel(p.network)},
		{"Deployer", p.deployer.Hex()},
		{"Gas limit", fmt.Sprintf("%d", p.estimate.GasLimit)},
		{"Gas price", fmt.Sprintf("%.2f gwei", chain.WeiToGwei(p.estimate.GasPrice))},
		{"Estimated cost", cost},
	})
}

// deploy sends the plan, prints the summary and records the token locally
// and with the backend. Recording failures never fail the deployment.
func (a *app) deploy(ctx context.Context, p *plan) (*session.DeploymentResult, error) {
	res, err := a.session.DeployContract(ctx, p.artifact.Bytecode, p.artifact.ABI, p.args...)
	var pending *session.PendingError
	if errors.As(err, &pending) {
		a.recordPending(p, pending)
		return nil, shown(err)
	}
	if err != nil {
		return nil, shown(err)
	}

	pairs := [][2]string{
		{"Contract", res.ContractAddress},
		{"Transaction", res.TransactionHash},
		{"Block", fmt.Sprintf("%d", res.BlockNumber)},
		{"Gas used", fmt.Sprintf("%d", res.GasUsed)},
	}
	if hash, err := p.artifact.InitCodeHash(p.args...); err == nil {
		pairs = append(pairs, [2]string{"Init code hash", hash})
	}
	if u := p.network.AddressURL(res.ContractAddress); u != "" {
		pairs = append(pairs, [2]string{"Explorer", u})
	}
	if u := p.network.TxURL(res.TransactionHash); u != "" {
		pairs = append(pairs, [2]string{"Tx link", u})
	}
	fmt.Fprintln(a.out, ui.KeyValueBlock(p.req.Symbol+" deployed on "+p.network.DisplayName, pairs))

	a.verify(ctx, p, res)

	rec := p.record(res.ContractAddress, res.TransactionHash)
	rec.GasUsed = res.GasUsed
	rec.BlockNumber = res.BlockNumber
	rec.Published = a.publish(ctx, rec)
	a.saveDeployment(rec)
	return res, nil
}

// recordPending keeps a sent deployment whose receipt never arrived, so the
// transaction can still be found from history.
func (a *app) recordPending(p *plan, pe *session.PendingError) {
	rec := p.record(pe.ContractAddress, pe.TransactionHash)
	rec.Unconfirmed = true
	fmt.Fprintln(a.out, ui.Warn("Transaction "+pe.TransactionHash+" was sent but not confirmed. Do not deploy again until it is settled."))
	if u := p.network.TxURL(pe.TransactionHash); u != "" {
		fmt.Fprintln(a.out, ui.Meta("Track it at "+u))
	}
	a.saveDeployment(rec)
}

func (a *app) saveDeployment(rec config.Deployment) {
	if err := cfg.RecordDeployment(rec); err != nil {
		logger.Warn("recording deployment", zap.Error(err))
		fmt.Fprintln(a.out, ui.Warn("Could not save the deployment locally: "+err.Error()))
	}
}

func (p *plan) record(address, txHash string) config.Deployment {
	return config.Deployment{
		Name:            strings.TrimSpace(p.req.Name),
		Symbol:          p.req.Symbol,
		TotalSupply:     p.req.TotalSupply,
		Decimals:        p.req.Decimals,
		ChainID:         p.network.ChainID,
		Network:         p.network.Name,
		ContractAddress: address,
		TransactionHash: txHash,
		Deployer:        p.deployer.Hex(),
		Description:     p.req.Description,
		ImageURL:        p.req.ImageURL,
	}
}

// verify reads the new token back from the chain. A mismatch is reported
// but the deployment stands.
func (a *app) verify(ctx context.Context, p *plan, res *session.DeploymentResult) {
	if a.keyed == nil {
		return
	}
	b, err := a.keyed.Backend(ctx)
	if err != nil {
		logger.Debug("verify: backend", zap.Error(err))
		return
	}
	want := contract.Expected{
		Name:     strings.TrimSpace(p.req.Name),
		Symbol:   p.req.Symbol,
		Decimals: p.req.Decimals,
		Holder:   p.deployer,
	}
	if p.req.Recipient != "" {
		want.Holder = common.HexToAddress(p.req.Recipient)
	}
	if want.Supply, err = p.req.BaseUnits(); err != nil {
		return
	}
	if _, err := contract.NewReader(b).Verify(ctx, common.HexToAddress(res.ContractAddress), want); err != nil {
		logger.Warn("on-chain check", zap.Error(err))
		fmt.Fprintln(a.out, ui.Warn("On-chain check failed: "+err.Error()))
		return
	}
	fmt.Fprintln(a.out, ui.Success("On-chain check passed: metadata and recipient balance match."))
}

// publish sends the token to the backend, if one is configured, and
// reports whether it was accepted.
func (a *app) publish(ctx context.Context, rec config.Deployment) bool {
	if a.backend == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.BackendTimeout)
	defer cancel()

	if _, err := a.backend.CreateToken(ctx, sync.Record(rec)); err != nil {
		logger.Warn("publishing token", zap.Error(err))
		fmt.Fprintln(a.out, ui.Warn("Token deployed but not saved to the launchpad: "+err.Error()))
		fmt.Fprintln(a.out, ui.Hint("Retry later with: tokenlaunch history sync"))
		return false
	}
	fmt.Fprintln(a.out, ui.Success("Token saved to the launchpad."))
	return true
}

// checkMaxCost fails when limit is set and the estimate exceeds it.
func checkMaxCost(p *plan, limit string) error {
	if limit == "" {
		return nil
	}
	ceiling, err := chain.ParseNative(limit)
	if err != nil {
		return fmt.Errorf("--max-cost: %w", err)
	}
	if p.estimate.Cost != nil && p.estimate.Cost.Cmp(ceiling) > 0 {
		return fmt.Errorf("%w: %s %s > %s %s", errCostLimit,
			chain.FormatNative(p.estimate.Cost), p.network.NativeCurrency,
			chain.FormatNative(ceiling), p.network.NativeCurrency)
	}
	return nil
}

// addTokenFlags registers the request flags on c.
func addTokenFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&tokName, "name", "", "token name")
	f.StringVar(&tokSymbol, "symbol", "", "token symbol, 2-20 letters or digits")
	f.StringVar(&tokSupply, "supply", "", "total supply in whole tokens")
	f.Uint8Var(&tokDecimals, "decimals", 18, "token decimals (max 18)")
	f.StringVar(&tokNetwork, "network", "", "network name or chain ID (default: config default_network)")
	f.StringVar(&tokRecipient, "recipient", "", "address or ENS name receiving the supply (default: deployer)")
	f.BoolVar(&tokBurnable, "burnable", false, "holders can burn their tokens")
	f.BoolVar(&tokPausable, "pausable", false, "deployer can pause transfers")
	f.StringVar(&tokDescription, "description", "", "description sent to the launchpad")
	f.StringVar(&tokImage, "image", "", "image URL sent to the launchpad")
	f.StringVarP(&tokFile, "file", "f", "", "YAML or JSON token description")
	f.StringVar(&tokArtifact, "artifact", "", "deploy a precompiled Hardhat/Foundry artifact with the same constructor instead of compiling")
}

func init() {
	addTokenFlags(estimateCmd)
	addTokenFlags(deployCmd)
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "stop after the estimate")
	deployCmd.Flags().StringVar(&deployMaxCost, "max-cost", "", "refuse to deploy when the estimate exceeds this many native units")
}
