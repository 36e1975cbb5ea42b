package listener

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KcPele/enb-bounty-indexer/internal/projection"
)

const testChain = int64(8453)

func packEvent(t *testing.T, name string, args ...interface{}) []byte {
	t.Helper()
	ev, ok := bountyEventsABI.Events[name]
	require.True(t, ok, "event %s not in ABI", name)
	data, err := ev.Inputs.Pack(args...)
	require.NoError(t, err)
	return data
}

func testLog(topic common.Hash, data []byte) ethtypes.Log {
	return ethtypes.Log{
		Topics:      []common.Hash{topic},
		Data:        data,
		TxHash:      common.HexToHash("0xabc123"),
		TxIndex:     2,
		Index:       7,
		BlockNumber: 1000,
	}
}

func TestParseLogTokenBountyCreated(t *testing.T) {
	issuer := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	token := common.HexToAddress("0x833589FCD6EDB6E08F4C7C32D4F71B54BDA02913")
	data := packEvent(t, "TokenBountyCreated",
		big.NewInt(1), issuer, "title", "desc",
		big.NewInt(5000000), big.NewInt(3), uint8(1), token, big.NewInt(1700000000))

	ev, err := ParseLog(testLog(topicTokenBountyCreated, data), testChain, 1700000000)
	require.NoError(t, err)
	e, ok := ev.(projection.BountyCreated)
	require.True(t, ok)
	assert.Equal(t, int64(1), e.BountyID)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", e.Issuer)
	assert.Equal(t, "title", e.Title)
	assert.Equal(t, "5000000", e.Amount)
	assert.Equal(t, 3, e.MaxWinners)
	assert.Equal(t, 1, e.TokenType)
	assert.Equal(t, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", e.TokenAddress)
	assert.Equal(t, testChain, e.Meta().ChainID)
	assert.Equal(t, int64(7), e.Meta().LogIndex)
	assert.Equal(t, uint64(1000), e.Meta().BlockNumber)
}

func TestParseLogBountyCreatedZeroToken(t *testing.T) {
	issuer := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	data := packEvent(t, "TokenBountyCreated",
		big.NewInt(2), issuer, "eth bounty", "",
		big.NewInt(1), big.NewInt(0), uint8(0), common.Address{}, big.NewInt(0))

	ev, err := ParseLog(testLog(topicTokenBountyCreated, data), testChain, 0)
	require.NoError(t, err)
	e := ev.(projection.BountyCreated)
	// native-currency bounties carry the zero address, stored as empty
	assert.Empty(t, e.TokenAddress)
	// a zero winner budget floors to one
	assert.Equal(t, 1, e.MaxWinners)
}

func TestParseLogBountyJoined(t *testing.T) {
	participant := common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	data := packEvent(t, "BountyJoined", big.NewInt(1), participant, big.NewInt(500))

	ev, err := ParseLog(testLog(topicBountyJoined, data), testChain, 42)
	require.NoError(t, err)
	e, ok := ev.(projection.BountyJoined)
	require.True(t, ok)
	assert.Equal(t, int64(1), e.BountyID)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", e.Participant)
	assert.Equal(t, "500", e.Amount)
	assert.Equal(t, int64(42), e.Meta().Timestamp)
}

func TestParseLogClaimAccepted(t *testing.T) {
	claimIssuer := common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	bountyIssuer := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	data := packEvent(t, "ClaimAccepted",
		big.NewInt(10), big.NewInt(5), claimIssuer, bountyIssuer, big.NewInt(0))

	ev, err := ParseLog(testLog(topicClaimAccepted, data), testChain, 0)
	require.NoError(t, err)
	e, ok := ev.(projection.ClaimAccepted)
	require.True(t, ok)
	assert.Equal(t, int64(10), e.BountyID)
	assert.Equal(t, int64(5), e.ClaimID)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", e.ClaimIssuer)
}

func TestParseLogVotingPeriodResetBothSignatures(t *testing.T) {
	data := packEvent(t, "VotingPeriodReset", big.NewInt(10))
	ev, err := ParseLog(testLog(topicVotingPeriodReset, data), testChain, 0)
	require.NoError(t, err)
	_, ok := ev.(projection.VotingPeriodReset)
	require.True(t, ok)

	// older deployments emit ResetVotingPeriod; both decode to the same event
	legacy := packEvent(t, "ResetVotingPeriod", big.NewInt(10))
	ev, err = ParseLog(testLog(topicResetVotingPeriod, legacy), testChain, 0)
	require.NoError(t, err)
	e, ok := ev.(projection.VotingPeriodReset)
	require.True(t, ok)
	assert.Equal(t, int64(10), e.BountyID)
}

func TestParseLogNFTTransfer(t *testing.T) {
	lg := ethtypes.Log{
		Topics: []common.Hash{
			topicNFTTransfer,
			common.BytesToHash(common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA").Bytes()),
			common.BytesToHash(common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB").Bytes()),
			common.BigToHash(big.NewInt(5)),
		},
		TxHash:      common.HexToHash("0xdef456"),
		BlockNumber: 1001,
	}
	ev, err := ParseLog(lg, testChain, 0)
	require.NoError(t, err)
	e, ok := ev.(projection.NFTTransfer)
	require.True(t, ok)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", e.From)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", e.To)
	assert.Equal(t, int64(5), e.TokenID)
}

func TestParseLogERC20TransferSkipped(t *testing.T) {
	// an ERC-20 Transfer shares the topic but has only two indexed args
	lg := ethtypes.Log{
		Topics: []common.Hash{
			topicNFTTransfer,
			common.BytesToHash(common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA").Bytes()),
			common.BytesToHash(common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB").Bytes()),
		},
		Data: common.BigToHash(big.NewInt(5)).Bytes(),
	}
	_, err := ParseLog(lg, testChain, 0)
	assert.ErrorIs(t, err, errUnknownEvent)
}

func TestParseLogUnknownTopic(t *testing.T) {
	lg := ethtypes.Log{Topics: []common.Hash{common.HexToHash("0xdeadbeef")}}
	_, err := ParseLog(lg, testChain, 0)
	assert.ErrorIs(t, err, errUnknownEvent)

	_, err = ParseLog(ethtypes.Log{}, testChain, 0)
	assert.ErrorIs(t, err, errUnknownEvent)
}
