package token

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// ErrNoBytecode is returned for artifacts of interfaces or abstract contracts.
var ErrNoBytecode = errors.New("artifact has no bytecode")

// Artifact is a compiled contract ready to deploy.
type Artifact struct {
	Name     string
	ABI      string // JSON ABI array
	Bytecode []byte // creation bytecode
}

// LoadArtifact reads a Hardhat or Foundry artifact JSON file. It fails when
// the file has no "abi" array or carries no deployable bytecode.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact file is empty: %s", path)
	}

	var raw struct {
		ContractName string          `json:"contractName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact JSON: %w", err)
	}

	if len(raw.ABI) < 2 || raw.ABI[0] != '[' {
		return nil, fmt.Errorf("artifact has no valid \"abi\" array: %s", path)
	}
	if _, err := abi.JSON(strings.NewReader(string(raw.ABI))); err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}

	if len(raw.Bytecode) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, path)
	}
	bcHex, err := extractBytecodeHex(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("extracting bytecode from artifact: %w", err)
	}
	bc, err := decodeBytecode(bcHex)
	if err != nil {
		return nil, err
	}
	if len(bc) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, path)
	}

	name := raw.ContractName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &Artifact{Name: name, ABI: string(raw.ABI), Bytecode: bc}, nil
}

// ConstructorInput ABI-encodes constructor args.
func (a *Artifact) ConstructorInput(args ...any) ([]byte, error) {
	parsed, err := abi.JSON(strings.NewReader(a.ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing ABI: %w", err)
	}
	return parsed.Pack("", args...)
}

// InitCodeHash is keccak256(bytecode ++ constructor input), the value CREATE2
// factories and explorers key verified deployments by.
func (a *Artifact) InitCodeHash(args ...any) (string, error) {
	input, err := a.ConstructorInput(args...)
	if err != nil {
		return "", err
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(a.Bytecode)
	h.Write(input)
	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

// extractBytecodeHex handles the two common artifact formats:
//   - Hardhat:  "bytecode": "0x608060..."
//   - Foundry:  "bytecode": {"object": "0x608060..."}
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Object != "" {
		return strings.TrimSpace(obj.Object), nil
	}

	return "", fmt.Errorf("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}

func decodeBytecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if strings.Contains(s, "__") {
		return nil, fmt.Errorf("bytecode has unlinked library placeholders")
	}
	bc, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex: %w", err)
	}
	return bc, nil
}
