package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ApprovalKind says what the user is being asked to allow.
type ApprovalKind int

const (
	ApproveConnect ApprovalKind = iota
	ApproveSwitchChain
	ApproveAddChain
	ApproveSign
)

func (k ApprovalKind) String() string {
	switch k {
	case ApproveConnect:
		return "connect"
	case ApproveSwitchChain:
		return "switch network"
	case ApproveAddChain:
		return "add network"
	case ApproveSign:
		return "sign transaction"
	default:
		return "unknown"
	}
}

// ApprovalRequest carries whatever the prompt needs to show.
type ApprovalRequest struct {
	Kind     ApprovalKind
	Accounts []common.Address // connect
	ChainID  uint64           // switch, sign
	Chain    *ChainParams     // add
	From     common.Address   // sign
	Tx       *types.Transaction
}

// Approver decides on user-consent requests.
type Approver interface {
	Approve(ctx context.Context, req ApprovalRequest) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, req ApprovalRequest) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, req ApprovalRequest) (bool, error) {
	return f(ctx, req)
}

// AutoApprove grants every request. Used for non-interactive runs.
type AutoApprove struct{}

func (AutoApprove) Approve(ctx context.Context, _ ApprovalRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}
