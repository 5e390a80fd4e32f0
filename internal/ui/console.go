package ui

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/session"
	"github.com/patrickmn/go-cache"
)

// BalanceFunc looks up the native balance of an account on a chain.
type BalanceFunc func(ctx context.Context, account string, chainID uint64) (*big.Int, error)

const maxLogLines = 50

// Console draws session state to a terminal. It implements
// session.Renderer and is safe for concurrent use.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	balance BalanceFunc
	cache   *cache.Cache
	timeout time.Duration
	echoLog bool
	now     func() time.Time
	last    session.Snapshot
	logs    []string
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithBalance shows the account balance on the status line. Lookups are
// cached for ttl.
func WithBalance(fn BalanceFunc, ttl time.Duration) ConsoleOption {
	return func(c *Console) {
		c.balance = fn
		c.cache = cache.New(ttl, 2*ttl)
	}
}

// WithLogEcho prints status log lines as they arrive.
func WithLogEcho(on bool) ConsoleOption {
	return func(c *Console) { c.echoLog = on }
}

// NewConsole returns a renderer writing to out.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{out: out, timeout: 5 * time.Second, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Render prints the status line for s.
func (c *Console) Render(s session.Snapshot) {
	line := c.StatusLine(s)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = s
	fmt.Fprintln(c.out, line)
}

// StatusLine formats s without printing it.
func (c *Console) StatusLine(s session.Snapshot) string {
	var parts []string
	switch s.State {
	case session.Connected:
		parts = append(parts, StyleSuccess.Render("● connected"))
	case session.Connecting, session.SwitchingNetwork:
		parts = append(parts, StyleWarning.Render("◌ "+s.State.String()))
	default:
		return StyleMeta.Render("○ disconnected")
	}

	parts = append(parts, Addr(TruncateAddr(s.Session.Account)))

	switch {
	case s.Network != nil:
		parts = append(parts, ChainName(s.Network.DisplayName)+Meta(fmt.Sprintf(" (%d)", s.Session.ChainID)))
	case s.Session.ChainID != 0:
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("unsupported chain %d", s.Session.ChainID)))
	}

	if bal := c.balanceText(s); bal != "" {
		parts = append(parts, Val(bal))
	}
	if s.WalletType != "" {
		parts = append(parts, Meta("["+s.WalletType+"]"))
	}
	return strings.Join(parts, "  ")
}

func (c *Console) balanceText(s session.Snapshot) string {
	if c.balance == nil || s.Network == nil || s.Session.Account == "" {
		return ""
	}
	key := s.Session.Account + "@" + strconv.FormatUint(s.Session.ChainID, 10)
	if v, ok := c.cache.Get(key); ok {
		return v.(string)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	wei, err := c.balance(ctx, s.Session.Account, s.Session.ChainID)
	if err != nil {
		return ""
	}
	text := chain.FormatNative(wei) + " " + s.Network.NativeCurrency
	c.cache.SetDefault(key, text)
	return text
}

// Notify prints a toast.
func (c *Console) Notify(level session.Level, msg string) {
	var line string
	switch level {
	case session.LevelSuccess:
		line = Success(msg)
	case session.LevelWarning:
		line = Warn(msg)
	case session.LevelError:
		line = Err(msg)
	default:
		line = Info(msg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

// Log appends msg to the status log.
func (c *Console) Log(msg string) {
	entry := c.now().Format("15:04:05") + "  " + msg
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, entry)
	if len(c.logs) > maxLogLines {
		c.logs = c.logs[len(c.logs)-maxLogLines:]
	}
	if c.echoLog {
		fmt.Fprintln(c.out, Meta("· "+entry))
	}
}

// History returns the status log, oldest first.
func (c *Console) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.logs...)
}

// Last returns the most recently rendered snapshot.
func (c *Console) Last() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Reload drops cached balances so the next render fetches fresh values.
// It matches the session manager's reload hook.
func (c *Console) Reload(context.Context) {
	if c.cache != nil {
		c.cache.Flush()
	}
}
