package session

import "context"

// Level is a notification severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Renderer is the UI the manager drives. Implementations must be safe for
// concurrent use; event handling calls it from the Watch goroutine.
type Renderer interface {
	// Render redraws everything that depends on the session.
	Render(Snapshot)
	// Notify shows a dismissible toast.
	Notify(Level, string)
	// Log appends to the status log.
	Log(string)
}

// Persister records wallet connections somewhere outside the process.
type Persister interface {
	SaveConnection(ctx context.Context, address, walletType string) error
}

type nopRenderer struct{}

func (nopRenderer) Render(Snapshot)      {}
func (nopRenderer) Notify(Level, string) {}
func (nopRenderer) Log(string)           {}
