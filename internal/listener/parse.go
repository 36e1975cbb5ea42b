package listener

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/KcPele/enb-bounty-indexer/internal/projection"
)

// errUnknownEvent marks logs whose topic the projection engine does not
// consume; the listener skips them silently.
var errUnknownEvent = errors.New("unknown event topic")

func meta(lg ethtypes.Log, chainID int64, timestamp int64) projection.EventMeta {
	return projection.EventMeta{
		ChainID:     chainID,
		TxHash:      lg.TxHash.Hex(),
		TxIndex:     int64(lg.TxIndex),
		LogIndex:    int64(lg.Index),
		BlockNumber: lg.BlockNumber,
		Timestamp:   timestamp,
	}
}

// ParseLog decodes a raw log into its typed projection event. Validation
// happens here, at the collaborator boundary, so handlers never touch
// loosely-typed payloads.
func ParseLog(lg ethtypes.Log, chainID int64, timestamp int64) (projection.Event, error) {
	if len(lg.Topics) == 0 {
		return nil, errUnknownEvent
	}
	switch lg.Topics[0] {
	case topicTokenBountyCreated:
		return parseTokenBountyCreated(lg, chainID, timestamp)
	case topicBountyCancelled:
		return parseBountyCancelled(lg, chainID, timestamp)
	case topicBountyJoined:
		return parseBountyJoined(lg, chainID, timestamp)
	case topicWithdrawFromOpenBounty:
		return parseWithdraw(lg, chainID, timestamp)
	case topicClaimCreated:
		return parseClaimCreated(lg, chainID, timestamp)
	case topicClaimAccepted:
		return parseClaimAccepted(lg, chainID, timestamp)
	case topicClaimSubmittedForVote:
		return parseClaimSubmittedForVote(lg, chainID, timestamp)
	case topicVoteClaim:
		return parseVoteClaim(lg, chainID, timestamp)
	case topicVotingPeriodReset:
		return parseVotingPeriodReset(lg, chainID, timestamp, "VotingPeriodReset")
	case topicResetVotingPeriod:
		return parseVotingPeriodReset(lg, chainID, timestamp, "ResetVotingPeriod")
	case topicNFTTransfer:
		return parseNFTTransfer(lg, chainID, timestamp)
	}
	return nil, errUnknownEvent
}

func parseTokenBountyCreated(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		Id           *big.Int
		Issuer       common.Address
		Name         string
		Description  string
		Amount       *big.Int
		MaxWinners   *big.Int
		TokenType    uint8
		TokenAddress common.Address
		CreatedAt    *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "TokenBountyCreated", lg.Data); err != nil {
		return nil, err
	}
	maxWinners := int(out.MaxWinners.Int64())
	if maxWinners < 1 {
		maxWinners = 1
	}
	tokenAddress := ""
	if out.TokenAddress != (common.Address{}) {
		tokenAddress = strings.ToLower(out.TokenAddress.Hex())
	}
	return projection.BountyCreated{
		EventMeta:    meta(lg, chainID, ts),
		BountyID:     out.Id.Int64(),
		Issuer:       strings.ToLower(out.Issuer.Hex()),
		Title:        out.Name,
		Description:  out.Description,
		Amount:       out.Amount.String(),
		MaxWinners:   maxWinners,
		TokenType:    int(out.TokenType),
		TokenAddress: tokenAddress,
		CreatedAt:    out.CreatedAt.Int64(),
	}, nil
}

func parseBountyCancelled(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		BountyId *big.Int
		Issuer   common.Address
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "BountyCancelled", lg.Data); err != nil {
		return nil, err
	}
	return projection.BountyCanceled{
		EventMeta: meta(lg, chainID, ts),
		BountyID:  out.BountyId.Int64(),
		Issuer:    strings.ToLower(out.Issuer.Hex()),
	}, nil
}

func parseBountyJoined(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		BountyId    *big.Int
		Participant common.Address
		Amount      *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "BountyJoined", lg.Data); err != nil {
		return nil, err
	}
	return projection.BountyJoined{
		EventMeta:   meta(lg, chainID, ts),
		BountyID:    out.BountyId.Int64(),
		Participant: strings.ToLower(out.Participant.Hex()),
		Amount:      out.Amount.String(),
	}, nil
}

func parseWithdraw(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		BountyId    *big.Int
		Participant common.Address
		Amount      *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "WithdrawFromOpenBounty", lg.Data); err != nil {
		return nil, err
	}
	return projection.WithdrawFromOpenBounty{
		EventMeta:   meta(lg, chainID, ts),
		BountyID:    out.BountyId.Int64(),
		Participant: strings.ToLower(out.Participant.Hex()),
		Amount:      out.Amount.String(),
	}, nil
}

func parseClaimCreated(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		Id           *big.Int
		Issuer       common.Address
		BountyId     *big.Int
		BountyIssuer common.Address
		Name         string
		Description  string
		CreatedAt    *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "ClaimCreated", lg.Data); err != nil {
		return nil, err
	}
	return projection.ClaimCreated{
		EventMeta:    meta(lg, chainID, ts),
		ClaimID:      out.Id.Int64(),
		Issuer:       strings.ToLower(out.Issuer.Hex()),
		BountyID:     out.BountyId.Int64(),
		BountyIssuer: strings.ToLower(out.BountyIssuer.Hex()),
		Title:        out.Name,
		Description:  out.Description,
		CreatedAt:    out.CreatedAt.Int64(),
	}, nil
}

func parseClaimAccepted(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		BountyId     *big.Int
		ClaimId      *big.Int
		ClaimIssuer  common.Address
		BountyIssuer common.Address
		Fee          *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "ClaimAccepted", lg.Data); err != nil {
		return nil, err
	}
	return projection.ClaimAccepted{
		EventMeta:    meta(lg, chainID, ts),
		BountyID:     out.BountyId.Int64(),
		ClaimID:      out.ClaimId.Int64(),
		ClaimIssuer:  strings.ToLower(out.ClaimIssuer.Hex()),
		BountyIssuer: strings.ToLower(out.BountyIssuer.Hex()),
		Fee:          out.Fee.String(),
	}, nil
}

func parseClaimSubmittedForVote(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		BountyId *big.Int
		ClaimId  *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "ClaimSubmittedForVote", lg.Data); err != nil {
		return nil, err
	}
	return projection.ClaimSubmittedForVote{
		EventMeta: meta(lg, chainID, ts),
		BountyID:  out.BountyId.Int64(),
		ClaimID:   out.ClaimId.Int64(),
	}, nil
}

func parseVoteClaim(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	var out struct {
		Voter    common.Address
		BountyId *big.Int
		ClaimId  *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, "VoteClaim", lg.Data); err != nil {
		return nil, err
	}
	return projection.VoteClaim{
		EventMeta: meta(lg, chainID, ts),
		Voter:     strings.ToLower(out.Voter.Hex()),
		BountyID:  out.BountyId.Int64(),
		ClaimID:   out.ClaimId.Int64(),
	}, nil
}

func parseVotingPeriodReset(lg ethtypes.Log, chainID int64, ts int64, name string) (projection.Event, error) {
	var out struct {
		BountyId *big.Int
	}
	if err := bountyEventsABI.UnpackIntoInterface(&out, name, lg.Data); err != nil {
		return nil, err
	}
	return projection.VotingPeriodReset{
		EventMeta: meta(lg, chainID, ts),
		BountyID:  out.BountyId.Int64(),
	}, nil
}

// parseNFTTransfer decodes the standard ERC-721 Transfer from topics.
func parseNFTTransfer(lg ethtypes.Log, chainID int64, ts int64) (projection.Event, error) {
	if len(lg.Topics) < 4 {
		// ERC-20 Transfer shares the signature but carries only two
		// indexed topics; not ours.
		return nil, errUnknownEvent
	}
	return projection.NFTTransfer{
		EventMeta: meta(lg, chainID, ts),
		From:      strings.ToLower(common.BytesToAddress(lg.Topics[1].Bytes()).Hex()),
		To:        strings.ToLower(common.BytesToAddress(lg.Topics[2].Bytes()).Hex()),
		TokenID:   lg.Topics[3].Big().Int64(),
	}, nil
}
