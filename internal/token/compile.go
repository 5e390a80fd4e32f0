package token

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCompile is returned when the compiler reports errors or cannot run.
var ErrCompile = errors.New("compilation failed")

// Compiler turns contract source into a deployable artifact.
type Compiler interface {
	Compile(ctx context.Context, source string) (*Artifact, error)
}

// Solc runs the solc binary in standard-JSON mode.
type Solc struct {
	Path string // defaults to "solc" on PATH
	Runs int    // optimizer runs, defaults to 200
}

type solcInput struct {
	Language string                       `json:"language"`
	Sources  map[string]map[string]string `json:"sources"`
	Settings solcSettings                 `json:"settings"`
}

type solcSettings struct {
	Optimizer struct {
		Enabled bool `json:"enabled"`
		Runs    int  `json:"runs"`
	} `json:"optimizer"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type solcOutput struct {
	Errors []struct {
		Severity         string `json:"severity"`
		Message          string `json:"message"`
		FormattedMessage string `json:"formattedMessage"`
	} `json:"errors"`
	Contracts map[string]map[string]struct {
		ABI json.RawMessage `json:"abi"`
		EVM struct {
			Bytecode struct {
				Object string `json:"object"`
			} `json:"bytecode"`
		} `json:"evm"`
	} `json:"contracts"`
}

// Input builds the standard-JSON input for source.
func (s Solc) Input(source string) ([]byte, error) {
	in := solcInput{
		Language: "Solidity",
		Sources:  map[string]map[string]string{SourceFile: {"content": source}},
	}
	in.Settings.Optimizer.Enabled = true
	in.Settings.Optimizer.Runs = s.runs()
	in.Settings.OutputSelection = map[string]map[string][]string{
		"*": {"*": {"abi", "evm.bytecode"}},
	}
	return json.Marshal(in)
}

// Compile implements Compiler.
func (s Solc) Compile(ctx context.Context, source string) (*Artifact, error) {
	input, err := s.Input(source)
	if err != nil {
		return nil, err
	}

	path := s.Path
	if path == "" {
		path = "solc"
	}
	cmd := exec.CommandContext(ctx, path, "--standard-json")
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: running %s: %s", ErrCompile, path, msg)
	}
	return ParseOutput(out, SourceFile, ContractName)
}

// ParseOutput extracts one contract from solc standard-JSON output. Any
// error-severity diagnostic fails the whole compilation.
func ParseOutput(data []byte, file, contract string) (*Artifact, error) {
	var out solcOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: unreadable compiler output: %w", ErrCompile, err)
	}

	var errs []string
	for _, e := range out.Errors {
		if e.Severity != "error" {
			continue
		}
		msg := strings.TrimSpace(e.FormattedMessage)
		if msg == "" {
			msg = e.Message
		}
		errs = append(errs, msg)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w:\n%s", ErrCompile, strings.Join(errs, "\n"))
	}

	c, ok := out.Contracts[file][contract]
	if !ok {
		return nil, fmt.Errorf("%w: contract %s not found in output", ErrCompile, contract)
	}
	bc, err := decodeBytecode(c.EVM.Bytecode.Object)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if len(bc) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, contract)
	}
	return &Artifact{Name: contract, ABI: string(c.ABI), Bytecode: bc}, nil
}

func (s Solc) runs() int {
	if s.Runs > 0 {
		return s.Runs
	}
	return 200
}
