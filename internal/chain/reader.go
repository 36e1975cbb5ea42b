package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/KcPele/enb-bounty-indexer/internal/projection"
)

// The reader issues the three read-only contract calls the projection
// engine needs: ERC-20 metadata, the bounty contract's claims(id) struct,
// and the NFT tokenURI. Callers treat every error as a degrade-to-default.

const erc20ABIJSON = `[
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]}
]`

const bountyReadABIJSON = `[
	{"name":"claims","type":"function","stateMutability":"view",
	 "inputs":[{"name":"index","type":"uint256"}],
	 "outputs":[
		{"name":"id","type":"uint256"},
		{"name":"issuer","type":"address"},
		{"name":"bountyId","type":"uint256"},
		{"name":"bountyIssuer","type":"address"},
		{"name":"name","type":"string"},
		{"name":"description","type":"string"},
		{"name":"createdAt","type":"uint256"},
		{"name":"accepted","type":"bool"}
	]}
]`

const nftReadABIJSON = `[
	{"name":"tokenURI","type":"function","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"type":"string"}]}
]`

var (
	erc20ABI      abi.ABI
	bountyReadABI abi.ABI
	nftReadABI    abi.ABI
)

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse erc20 ABI: " + err.Error())
	}
	bountyReadABI, err = abi.JSON(strings.NewReader(bountyReadABIJSON))
	if err != nil {
		panic("failed to parse bounty read ABI: " + err.Error())
	}
	nftReadABI, err = abi.JSON(strings.NewReader(nftReadABIJSON))
	if err != nil {
		panic("failed to parse nft read ABI: " + err.Error())
	}
}

// Reader implements projection.ContractReader against the configured RPC
// clients and contract addresses.
type Reader struct{}

var _ projection.ContractReader = (*Reader)(nil)

func callContract(ctx context.Context, chainID int64, target string, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	c, err := GetClient(chainID)
	if err != nil {
		return nil, err
	}
	if target == "" {
		return nil, errors.New("contract address not configured")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(target)
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return parsed.Unpack(method, out)
}

// TokenMetadata reads symbol, decimals and name from an ERC-20 contract.
// Each field is read independently so one bad method does not poison the
// rest; fully failed reads return an error for the caller to default on.
func (r *Reader) TokenMetadata(ctx context.Context, chainID int64, token string) (string, int, string, error) {
	l := log.WithFields(log.Fields{
		"action": "TokenMetadata",
		"chain":  chainID,
		"token":  token,
	})
	l.Debug("start")
	defer l.Debug("end")
	var symbol, name string
	var decimals int
	var failures int
	if out, err := callContract(ctx, chainID, token, erc20ABI, "symbol"); err == nil && len(out) == 1 {
		symbol, _ = out[0].(string)
	} else {
		l.WithError(err).Debug("symbol read failed")
		failures++
	}
	if out, err := callContract(ctx, chainID, token, erc20ABI, "decimals"); err == nil && len(out) == 1 {
		if d, ok := out[0].(uint8); ok {
			decimals = int(d)
		}
	} else {
		l.WithError(err).Debug("decimals read failed")
		failures++
	}
	if out, err := callContract(ctx, chainID, token, erc20ABI, "name"); err == nil && len(out) == 1 {
		name, _ = out[0].(string)
	} else {
		l.WithError(err).Debug("name read failed")
		failures++
	}
	if failures == 3 {
		return "", 0, "", errors.New("all token metadata reads failed")
	}
	return symbol, decimals, name, nil
}

// ClaimByID reads the canonical claim struct from the bounty contract.
func (r *Reader) ClaimByID(ctx context.Context, chainID int64, claimID int64) (*projection.OnchainClaim, error) {
	bountyAddr, _ := Contracts(chainID)
	out, err := callContract(ctx, chainID, bountyAddr, bountyReadABI, "claims", bigInt(claimID))
	if err != nil {
		return nil, err
	}
	if len(out) < 8 {
		return nil, errors.New("unexpected claims() output arity")
	}
	oc := &projection.OnchainClaim{ID: claimID}
	if v, ok := out[0].(*big.Int); ok {
		oc.ID = v.Int64()
	}
	if v, ok := out[1].(common.Address); ok {
		oc.Issuer = strings.ToLower(v.Hex())
	}
	if v, ok := out[2].(*big.Int); ok {
		oc.BountyID = v.Int64()
	}
	if v, ok := out[4].(string); ok {
		oc.Title = v
	}
	if v, ok := out[5].(string); ok {
		oc.Description = v
	}
	if v, ok := out[7].(bool); ok {
		oc.Accepted = v
	}
	return oc, nil
}

// TokenURI reads the NFT token URI for a claim id.
func (r *Reader) TokenURI(ctx context.Context, chainID int64, tokenID int64) (string, error) {
	_, nftAddr := Contracts(chainID)
	out, err := callContract(ctx, chainID, nftAddr, nftReadABI, "tokenURI", bigInt(tokenID))
	if err != nil {
		return "", err
	}
	if len(out) != 1 {
		return "", errors.New("unexpected tokenURI output arity")
	}
	uri, _ := out[0].(string)
	return uri, nil
}

func bigInt(v int64) *big.Int {
	return big.NewInt(v)
}
