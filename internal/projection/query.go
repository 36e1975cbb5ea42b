package projection

import (
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Read-only projections backing the query surface. The live/voting/past
// partitions are derived entirely from the inProgress/isVoting/isCanceled
// flags; there is no independent status column to drift from them.

// GetBountiesByChain returns all bounties on a chain ordered by id.
func GetBountiesByChain(db *gorm.DB, chainID int64) []Bounty {
	var bounties []Bounty
	db.Where("chain_id = ?", chainID).Order("id ASC").Find(&bounties)
	return bounties
}

// GetBounty returns one bounty or nil.
func GetBounty(db *gorm.DB, chainID, bountyID int64) *Bounty {
	var b Bounty
	res := db.Where("chain_id = ? AND id = ?", chainID, bountyID).First(&b)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil
	}
	if res.Error != nil {
		log.WithError(res.Error).WithFields(log.Fields{
			"func":   "GetBounty",
			"chain":  chainID,
			"bounty": bountyID,
		}).Error("query failed")
		return nil
	}
	return &b
}

// GetLiveBounties returns in-progress bounties that are not in a voting
// window.
func GetLiveBounties(db *gorm.DB, chainID int64) []Bounty {
	var bounties []Bounty
	db.Where("chain_id = ? AND in_progress = ? AND is_voting = ?", chainID, true, false).
		Order("id ASC").Find(&bounties)
	return bounties
}

// GetVotingBounties returns in-progress bounties inside a voting window.
func GetVotingBounties(db *gorm.DB, chainID int64) []Bounty {
	var bounties []Bounty
	db.Where("chain_id = ? AND in_progress = ? AND is_voting = ?", chainID, true, true).
		Order("id ASC").Find(&bounties)
	return bounties
}

// GetPastBounties returns completed, non-canceled bounties.
func GetPastBounties(db *gorm.DB, chainID int64) []Bounty {
	var bounties []Bounty
	db.Where("chain_id = ? AND in_progress = ? AND is_canceled = ?", chainID, false, false).
		Order("id ASC").Find(&bounties)
	return bounties
}

// GetBountiesByTokenType filters bounties by denomination, newest first.
func GetBountiesByTokenType(db *gorm.DB, chainID int64, tokenType int) []Bounty {
	var bounties []Bounty
	db.Where("chain_id = ? AND token_type = ?", chainID, tokenType).
		Order("id DESC").Find(&bounties)
	return bounties
}

// GetMultiplayerBounties returns bounties more than one address funded.
func GetMultiplayerBounties(db *gorm.DB, chainID int64) []Bounty {
	var bounties []Bounty
	db.Where("chain_id = ? AND is_multiplayer = ?", chainID, true).
		Order("id ASC").Find(&bounties)
	return bounties
}

// GetParticipations returns the stakes currently held in a bounty.
func GetParticipations(db *gorm.DB, chainID, bountyID int64) []Participation {
	var parts []Participation
	db.Where("chain_id = ? AND bounty_id = ?", chainID, bountyID).Find(&parts)
	return parts
}

// GetClaimsByBounty returns a bounty's claims ordered by id.
func GetClaimsByBounty(db *gorm.DB, chainID, bountyID int64) []Claim {
	var claims []Claim
	db.Where("chain_id = ? AND bounty_id = ?", chainID, bountyID).
		Order("id ASC").Find(&claims)
	return claims
}

// GetClaimsByChain returns all claims on a chain ordered by id.
func GetClaimsByChain(db *gorm.DB, chainID int64) []Claim {
	var claims []Claim
	db.Where("chain_id = ?", chainID).Order("id ASC").Find(&claims)
	return claims
}

// GetClaim returns one claim or nil.
func GetClaim(db *gorm.DB, chainID, claimID int64) *Claim {
	var c Claim
	res := db.Where("chain_id = ? AND id = ?", chainID, claimID).First(&c)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil
	}
	if res.Error != nil {
		log.WithError(res.Error).WithFields(log.Fields{
			"func":  "GetClaim",
			"chain": chainID,
			"claim": claimID,
		}).Error("query failed")
		return nil
	}
	return &c
}

// GetBountyWinners returns the payout records for a bounty in acceptance
// order.
func GetBountyWinners(db *gorm.DB, chainID, bountyID int64) []BountyWinner {
	var winners []BountyWinner
	db.Where("chain_id = ? AND bounty_id = ?", chainID, bountyID).
		Order("timestamp ASC").Find(&winners)
	return winners
}

// GetUserWins returns the bounties an address has won, newest first.
func GetUserWins(db *gorm.DB, chainID int64, address string) []BountyWinner {
	var wins []BountyWinner
	db.Where("chain_id = ? AND winner = ?", chainID, strings.ToLower(address)).
		Order("timestamp DESC").Find(&wins)
	return wins
}

// GetVotesByBounty returns a bounty's ballots, newest first.
func GetVotesByBounty(db *gorm.DB, chainID, bountyID int64) []Vote {
	var votes []Vote
	db.Where("chain_id = ? AND bounty_id = ?", chainID, bountyID).
		Order("timestamp DESC").Find(&votes)
	return votes
}

// ClaimTally is the yes/no count for one claim.
type ClaimTally struct {
	YesVotes int `json:"yesVotes"`
	NoVotes  int `json:"noVotes"`
}

// VotingStats aggregates a bounty's ballots per claim. Tallies are computed
// at query time, never stored.
type VotingStats struct {
	BountyID       int64                `json:"bountyId"`
	ChainID        int64                `json:"chainId"`
	TotalVotes     int                  `json:"totalVotes"`
	VotesByClaimID map[int64]ClaimTally `json:"votesByClaimId"`
}

// GetVotingStats tallies yes/no ballots per claim for a bounty.
func GetVotingStats(db *gorm.DB, chainID, bountyID int64) VotingStats {
	votes := GetVotesByBounty(db, chainID, bountyID)
	stats := VotingStats{
		BountyID:       bountyID,
		ChainID:        chainID,
		TotalVotes:     len(votes),
		VotesByClaimID: make(map[int64]ClaimTally),
	}
	for _, v := range votes {
		tally := stats.VotesByClaimID[v.ClaimID]
		if v.Vote {
			tally.YesVotes++
		} else {
			tally.NoVotes++
		}
		stats.VotesByClaimID[v.ClaimID] = tally
	}
	return stats
}

// GetSupportedTokens returns the cached token metadata for a chain.
func GetSupportedTokens(db *gorm.DB, chainID int64) []SupportedToken {
	var tokens []SupportedToken
	db.Where("chain_id = ?", chainID).Find(&tokens)
	return tokens
}
