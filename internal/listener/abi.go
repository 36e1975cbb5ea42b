package listener

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event ABI for the bounty contract, trimmed to the events the projection
// engine consumes. All bounty-contract event arguments are non-indexed; the
// NFT Transfer carries its three arguments in topics.
const bountyEventsABIJSON = `[
	{"anonymous":false,"type":"event","name":"TokenBountyCreated","inputs":[
		{"indexed":false,"name":"id","type":"uint256"},
		{"indexed":false,"name":"issuer","type":"address"},
		{"indexed":false,"name":"name","type":"string"},
		{"indexed":false,"name":"description","type":"string"},
		{"indexed":false,"name":"amount","type":"uint256"},
		{"indexed":false,"name":"maxWinners","type":"uint256"},
		{"indexed":false,"name":"tokenType","type":"uint8"},
		{"indexed":false,"name":"tokenAddress","type":"address"},
		{"indexed":false,"name":"createdAt","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"BountyCancelled","inputs":[
		{"indexed":false,"name":"bountyId","type":"uint256"},
		{"indexed":false,"name":"issuer","type":"address"}]},
	{"anonymous":false,"type":"event","name":"BountyJoined","inputs":[
		{"indexed":false,"name":"bountyId","type":"uint256"},
		{"indexed":false,"name":"participant","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"WithdrawFromOpenBounty","inputs":[
		{"indexed":false,"name":"bountyId","type":"uint256"},
		{"indexed":false,"name":"participant","type":"address"},
		{"indexed":false,"name":"amount","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"ClaimCreated","inputs":[
		{"indexed":false,"name":"id","type":"uint256"},
		{"indexed":false,"name":"issuer","type":"address"},
		{"indexed":false,"name":"bountyId","type":"uint256"},
		{"indexed":false,"name":"bountyIssuer","type":"address"},
		{"indexed":false,"name":"name","type":"string"},
		{"indexed":false,"name":"description","type":"string"},
		{"indexed":false,"name":"createdAt","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"ClaimAccepted","inputs":[
		{"indexed":false,"name":"bountyId","type":"uint256"},
		{"indexed":false,"name":"claimId","type":"uint256"},
		{"indexed":false,"name":"claimIssuer","type":"address"},
		{"indexed":false,"name":"bountyIssuer","type":"address"},
		{"indexed":false,"name":"fee","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"ClaimSubmittedForVote","inputs":[
		{"indexed":false,"name":"bountyId","type":"uint256"},
		{"indexed":false,"name":"claimId","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"VoteClaim","inputs":[
		{"indexed":false,"name":"voter","type":"address"},
		{"indexed":false,"name":"bountyId","type":"uint256"},
		{"indexed":false,"name":"claimId","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"VotingPeriodReset","inputs":[
		{"indexed":false,"name":"bountyId","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"ResetVotingPeriod","inputs":[
		{"indexed":false,"name":"bountyId","type":"uint256"}]}
]`

var (
	bountyEventsABI abi.ABI

	topicTokenBountyCreated     common.Hash
	topicBountyCancelled        common.Hash
	topicBountyJoined           common.Hash
	topicWithdrawFromOpenBounty common.Hash
	topicClaimCreated           common.Hash
	topicClaimAccepted          common.Hash
	topicClaimSubmittedForVote  common.Hash
	topicVoteClaim              common.Hash
	topicVotingPeriodReset      common.Hash
	// Older contract deployments emit ResetVotingPeriod for the same state
	// change; both decode to the VotingPeriodReset projection event.
	topicResetVotingPeriod common.Hash
	topicNFTTransfer       common.Hash
)

func init() {
	var err error
	bountyEventsABI, err = abi.JSON(strings.NewReader(bountyEventsABIJSON))
	if err != nil {
		panic("failed to parse bounty events ABI: " + err.Error())
	}
	topicTokenBountyCreated = crypto.Keccak256Hash([]byte("TokenBountyCreated(uint256,address,string,string,uint256,uint256,uint8,address,uint256)"))
	topicBountyCancelled = crypto.Keccak256Hash([]byte("BountyCancelled(uint256,address)"))
	topicBountyJoined = crypto.Keccak256Hash([]byte("BountyJoined(uint256,address,uint256)"))
	topicWithdrawFromOpenBounty = crypto.Keccak256Hash([]byte("WithdrawFromOpenBounty(uint256,address,uint256)"))
	topicClaimCreated = crypto.Keccak256Hash([]byte("ClaimCreated(uint256,address,uint256,address,string,string,uint256)"))
	topicClaimAccepted = crypto.Keccak256Hash([]byte("ClaimAccepted(uint256,uint256,address,address,uint256)"))
	topicClaimSubmittedForVote = crypto.Keccak256Hash([]byte("ClaimSubmittedForVote(uint256,uint256)"))
	topicVoteClaim = crypto.Keccak256Hash([]byte("VoteClaim(address,uint256,uint256)"))
	topicVotingPeriodReset = crypto.Keccak256Hash([]byte("VotingPeriodReset(uint256)"))
	topicResetVotingPeriod = crypto.Keccak256Hash([]byte("ResetVotingPeriod(uint256)"))
	topicNFTTransfer = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
}
