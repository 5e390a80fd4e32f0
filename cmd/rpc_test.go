package cmd

import (
	"testing"

	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCAddListRemove(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("rpc", "add", "8453", "https://base.example")
	assert.Contains(t, out, "https://base.example")

	saved, err := config.Load(h.dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://base.example"}, saved.CustomRPCs["base"])

	out = h.mustRun("rpc", "list", "base")
	assert.Contains(t, out, "1. https://base.example")
	assert.Contains(t, out, "2. https://mainnet.base.org")
	assert.Contains(t, out, "(built-in)")

	_, err = h.run("rpc", "add", "base", "https://base.example")
	assert.ErrorContains(t, err, "already exists")

	out = h.mustRun("rpc", "remove", "base", "https://base.example")
	assert.Contains(t, out, "Removed RPC for base")

	saved, err = config.Load(h.dir)
	require.NoError(t, err)
	assert.Empty(t, saved.CustomRPCs["base"])
}

func TestRPCAddRejects(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("rpc", "add", "atlantis", "https://x.example")
	assert.ErrorContains(t, err, "unknown network")

	_, err = h.run("rpc", "add", "base", "not a url")
	assert.ErrorContains(t, err, "invalid RPC URL")

	_, err = h.run("rpc", "remove", "base", "https://never.example")
	assert.ErrorContains(t, err, "not found")
}

func TestRPCBenchmark(t *testing.T) {
	h := newHarness(t)
	h.mustRun("rpc", "add", "base", "https://base.example")
	h.heads["https://base.example"] = 1_000

	out := h.mustRun("rpc", "benchmark", "base")
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "down")
	assert.Contains(t, out, "would use https://base.example")
}

func TestRPCBenchmarkAllDown(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("rpc", "benchmark", "base")
	assert.Contains(t, out, "No endpoint answered.")
}

func TestBuildNetworksPoolsCustomRPCs(t *testing.T) {
	h := newHarness(t)
	h.mustRun("rpc", "add", "base", "https://one.example")
	h.mustRun("rpc", "add", "base", "https://two.example")

	c, err := config.Load(h.dir)
	require.NoError(t, err)
	reg, d, err := buildNetworks(c)
	require.NoError(t, err)

	n, err := reg.Resolve("base")
	require.NoError(t, err)
	assert.Equal(t, "https://one.example", n.RPCURL)
	assert.Equal(t,
		[]string{"https://one.example", "https://two.example", "https://mainnet.base.org"},
		d.Candidates(n.RPCURL))

	other, err := reg.Resolve("polygon")
	require.NoError(t, err)
	assert.Equal(t, []string{other.RPCURL}, d.Candidates(other.RPCURL))
}

func TestBuildNetworksRejectsAlgorithm(t *testing.T) {
	h := newHarness(t)
	c, err := config.Load(h.dir)
	require.NoError(t, err)
	c.RPCAlgorithm = "random"
	_, _, err = buildNetworks(c)
	assert.Error(t, err)
}
