package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/token"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errQuit ends the console loop.
var errQuit = errors.New("quit")

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive session that follows wallet events",
	Long: `Keep one session open: connect, switch networks, change accounts and
deploy tokens while the status line follows every wallet event.

Type "help" for the list of commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, ui.WithLogEcho(true))
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithCancel(cmd.Context())
		watching := make(chan struct{})
		defer func() {
			cancel()
			<-watching
		}()

		if a.keyed != nil {
			go func() {
				defer close(watching)
				if err := a.session.Watch(ctx); err != nil {
					logger.Warn("wallet events stopped", zap.Error(err))
				}
			}()
		} else {
			close(watching)
		}

		fmt.Fprintln(a.out, ui.Banner())
		rctx, rcancel := context.WithTimeout(ctx, config.RPCTimeout)
		restored, err := a.session.Restore(rctx)
		rcancel()
		if err != nil {
			logger.Debug("restore", zap.Error(err))
		}
		if !restored {
			a.console.Render(a.session.Snapshot())
		}
		fmt.Fprintln(a.out, ui.Hint(`Type "help" for commands.`))

		for {
			line, err := a.prompter.ReadLine(ui.ChainName("tokenlaunch") + " › ")
			if errors.Is(err, ui.ErrNoInput) {
				return nil
			}
			if err != nil {
				return err
			}
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			err = a.consoleRun(ctx, fields[0], fields[1:])
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				var se shownError
				if !errors.As(err, &se) {
					fmt.Fprintln(a.out, ui.Err(err.Error()))
				}
			}
			if ctx.Err() != nil {
				return nil
			}
		}
	},
}

const consoleHelp = `  status              account, network, balance and gas price
  connect             ask the wallet for access
  disconnect          forget the session, keep the wallet's grant
  lock                revoke every grant
  use <wallet>        select another wallet account
  switch [network]    switch network (picker when omitted)
  estimate [file]     estimate a deployment
  deploy [file]       deploy a token (prompts when no file is given)
  log                 show the status log
  exit                leave the console`

func (a *app) consoleRun(ctx context.Context, name string, args []string) error {
	switch name {
	case "help", "?":
		fmt.Fprintln(a.out, consoleHelp)
		return nil
	case "exit", "quit":
		return errQuit
	case "log":
		for _, l := range a.console.History() {
			fmt.Fprintln(a.out, ui.Meta(l))
		}
		return nil
	case "status":
		ctx, cancel := context.WithTimeout(ctx, config.RPCTimeout)
		defer cancel()
		fmt.Fprintln(a.out, a.statusBlock(ctx, a.session.Snapshot()))
		return nil
	case "disconnect":
		a.session.Disconnect()
		return nil
	}

	if a.keyed == nil {
		return errors.New("no wallet yet, create one with `tokenlaunch wallet generate <name>`")
	}

	switch name {
	case "connect":
		if a.session.Snapshot().Session.Connected {
			fmt.Fprintln(a.out, ui.Info("Already connected."))
			return nil
		}
		ctx, cancel := context.WithTimeout(ctx, config.DeployTimeout)
		defer cancel()
		_, err := a.session.Connect(ctx)
		return shown(err)
	case "lock":
		return a.keyed.Lock()
	case "use":
		if len(args) != 1 {
			return errors.New("usage: use <wallet>")
		}
		return a.keyed.Use(args[0])
	case "switch":
		ctx, cancel := context.WithTimeout(ctx, config.DeployTimeout)
		defer cancel()
		sess, err := a.ensureConnected(ctx)
		if err != nil {
			return err
		}
		var ref string
		if len(args) > 0 {
			ref = args[0]
		}
		return a.switchTo(ctx, ref, sess.ChainID)
	case "estimate", "deploy":
		ctx, cancel := context.WithTimeout(ctx, config.DeployTimeout)
		defer cancel()
		return a.consoleDeploy(ctx, name == "deploy", args)
	}
	return fmt.Errorf("unknown command %q, type \"help\"", name)
}

// consoleDeploy reads a request from a file or from prompts, then
// estimates and, when send is set, deploys it.
func (a *app) consoleDeploy(ctx context.Context, send bool, args []string) error {
	var (
		req token.Request
		err error
	)
	if len(args) > 0 {
		req, err = token.LoadFile(args[0])
		if req.Network == "" {
			req.Network = a.currentNetwork()
		}
	} else {
		req, err = a.promptRequest()
	}
	if err != nil {
		return err
	}

	p, err := a.prepare(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.previewBlock(ctx, p))
	if !send {
		return nil
	}
	if !assumeYes && !a.prompter.Confirm(fmt.Sprintf("Deploy %s to %s?", p.req.Symbol, p.network.DisplayName)) {
		fmt.Fprintln(a.out, ui.Meta("Cancelled."))
		return nil
	}
	_, err = a.deploy(ctx, p)
	return err
}

func (a *app) promptRequest() (token.Request, error) {
	req := token.Request{}
	var err error
	if req.Name, err = a.prompter.Input("Token name", ""); err != nil {
		return req, err
	}
	symbol, err := a.prompter.Input("Symbol", "")
	if err != nil {
		return req, err
	}
	req.Symbol = strings.ToUpper(symbol)
	if req.TotalSupply, err = a.prompter.Input("Total supply", "1000000"); err != nil {
		return req, err
	}
	decimals, err := a.prompter.Input("Decimals", "18")
	if err != nil {
		return req, err
	}
	d, err := strconv.ParseUint(decimals, 10, 8)
	if err != nil {
		return req, fmt.Errorf("%w: decimals must be a number from 0 to 18", token.ErrInvalidRequest)
	}
	req.Decimals = uint8(d)
	if req.Network, err = a.prompter.Input("Network", a.currentNetwork()); err != nil {
		return req, err
	}
	req.Burnable = a.prompter.Confirm("Burnable?")
	req.Pausable = a.prompter.Confirm("Pausable?")
	return req, nil
}

// currentNetwork is the connected chain's name, else the default network.
func (a *app) currentNetwork() string {
	if n := a.session.Snapshot().Network; n != nil {
		return n.Name
	}
	return cfg.DefaultNetwork
}
