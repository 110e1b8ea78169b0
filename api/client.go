package api

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/bjoernek/multi-chain-voting/types"
)

// Client calls the governance JSON-RPC API as one caller identity. Business errors are
// returned as the sentinel errors of the voting package.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the API at endpoint. An empty identity only allows calls that do not need
// one.
func Dial(ctx context.Context, endpoint, identity string) (*Client, error) {
	var opts []rpc.ClientOption
	if identity != "" {
		opts = append(opts, rpc.WithHeader(IdentityHeader, identity))
	}

	client, err := rpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}

	return &Client{rpc: client}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) SubmitProposal(
	ctx context.Context, title, description, proposalType string, durationSeconds uint64,
) (uint64, error) {
	var id uint64
	err := c.call(ctx, &id, "submitProposal", title, description, proposalType, durationSeconds)

	return id, err
}

func (c *Client) GetProposals(ctx context.Context) ([]types.Proposal, error) {
	var proposals []types.Proposal
	err := c.call(ctx, &proposals, "getProposals")

	return proposals, err
}

func (c *Client) GetProposal(ctx context.Context, id uint64) (types.Proposal, error) {
	var p types.Proposal
	err := c.call(ctx, &p, "getProposal", id)

	return p, err
}

func (c *Client) GetVotes(ctx context.Context, id uint64) ([]types.VoteRecord, error) {
	var votes []types.VoteRecord
	err := c.call(ctx, &votes, "getVotes", id)

	return votes, err
}

func (c *Client) VoteOnProposal(ctx context.Context, id uint64, choice bool) error {
	return c.call(ctx, nil, "voteOnProposal", id, choice)
}

func (c *Client) ExecuteProposal(ctx context.Context, id uint64) (string, error) {
	var txHash string
	err := c.call(ctx, &txHash, "executeProposal", id)

	return txHash, err
}

func (c *Client) GetEthAddress(ctx context.Context) (string, error) {
	var addr string
	err := c.call(ctx, &addr, "getEthAddress")

	return addr, err
}

func (c *Client) GetMyEthBalance(ctx context.Context) (string, error) {
	var balance string
	err := c.call(ctx, &balance, "getMyEthBalance")

	return balance, err
}

func (c *Client) ClearClosedProposals(ctx context.Context) (int, error) {
	var n int
	err := c.call(ctx, &n, "clearClosedProposals")

	return n, err
}

func (c *Client) ClearProposalByID(ctx context.Context, id uint64) error {
	return c.call(ctx, nil, "clearProposalById", id)
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	return fromRPCError(c.rpc.CallContext(ctx, result, Namespace+"_"+method, args...))
}
