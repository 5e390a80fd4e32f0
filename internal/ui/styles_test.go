package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormattersPrefix(t *testing.T) {
	assert.Contains(t, Success("done"), "✓ done")
	assert.Contains(t, Warn("careful"), "⚠ careful")
	assert.Contains(t, Err("failed"), "✗ failed")
	assert.Contains(t, Info("note"), "ℹ note")
	assert.Contains(t, Hint("run it"), "→ run it")
}

func TestInfoDifferentFromHint(t *testing.T) {
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestAllFormattersReturnNonEmpty(t *testing.T) {
	formatters := map[string]func(string) string{
		"Success":   Success,
		"Warn":      Warn,
		"Err":       Err,
		"Info":      Info,
		"Hint":      Hint,
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"ChainName": ChainName,
	}
	for name, fn := range formatters {
		t.Run(name, func(t *testing.T) {
			result := fn("test")
			assert.NotEmpty(t, result, "%s should return non-empty string", name)
			assert.Contains(t, result, "test", "%s should contain the input message", name)
		})
	}
}

// ---------------------------------------------------------------------------
// TruncateAddr
// ---------------------------------------------------------------------------

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))

	addr := "0x1234567890abcdef1234567890abcdef12345678"
	assert.Equal(t, "0x1234…5678", TruncateAddr(addr))
}

// ---------------------------------------------------------------------------
// Banner
// ---------------------------------------------------------------------------

func TestBannerContainsVersion(t *testing.T) {
	result := Banner()
	assert.Contains(t, result, "ERC-20")
	assert.Contains(t, result, Version)
}
