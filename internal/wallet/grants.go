package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Grants is the set of addresses the user has approved for this app. It
// survives across runs so a silent account lookup can find them again.
type Grants struct {
	mu   sync.Mutex
	path string
	mem  map[string]string
}

// NewGrants returns grants stored at path. An empty path keeps them in
// memory only.
func NewGrants(path string) *Grants {
	return &Grants{path: path}
}

// List returns the granted addresses in sorted order. Read errors yield
// an empty list.
func (g *Grants) List() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sortedValues(g.load())
}

// Has reports whether addr was granted.
func (g *Grants) Has(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.load()[strings.ToLower(addr)]
	return ok
}

// Add records addrs as granted.
func (g *Grants) Add(addrs ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.load()
	for _, a := range addrs {
		m[strings.ToLower(a)] = a
	}
	return g.save(m)
}

// Remove drops a single address.
func (g *Grants) Remove(addr string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.load()
	if _, ok := m[strings.ToLower(addr)]; !ok {
		return nil
	}
	delete(m, strings.ToLower(addr))
	return g.save(m)
}

// Clear revokes every grant by deleting the file.
func (g *Grants) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mem = nil
	if g.path == "" {
		return nil
	}
	err := os.Remove(g.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// --- storage ---

func (g *Grants) load() map[string]string {
	if g.path == "" {
		out := make(map[string]string, len(g.mem))
		for k, v := range g.mem {
			out[k] = v
		}
		return out
	}
	data, err := os.ReadFile(g.path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func (g *Grants) save(m map[string]string) error {
	if g.path == "" {
		g.mem = m
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(g.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(g.path, data, 0o600); err != nil {
		return err
	}
	_ = os.Chmod(g.path, 0o600)
	return nil
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
