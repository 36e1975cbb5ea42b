package projection

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// votingWindow is the fixed 48-hour voting period the contract opens when a
// claim is submitted for vote. It is policy, not configuration.
const votingWindow = 172800

// HandleClaimSubmittedForVote opens the voting window on an in-progress
// bounty and stamps the deadline.
func (p *Projector) HandleClaimSubmittedForVote(ctx context.Context, e ClaimSubmittedForVote) error {
	l := log.WithFields(log.Fields{
		"action": "HandleClaimSubmittedForVote",
		"chain":  e.ChainID,
		"bounty": e.BountyID,
		"claim":  e.ClaimID,
	})
	l.Debug("start")
	defer l.Debug("end")
	return p.db.Transaction(func(tx *gorm.DB) error {
		b, found, err := getBounty(tx, e.BountyID, e.ChainID)
		if err != nil {
			return err
		}
		if !found {
			l.Warn("bounty not found, dropping vote submission")
			return dropf("bounty %d not found on chain %d", e.BountyID, e.ChainID)
		}
		if !b.InProgress {
			l.Warn("bounty not in progress, dropping vote submission")
			return dropf("bounty %d on chain %d is not in progress", e.BountyID, e.ChainID)
		}
		deadline := e.Timestamp + votingWindow
		res := tx.Model(&Bounty{}).
			Where("id = ? AND chain_id = ?", e.BountyID, e.ChainID).
			Updates(map[string]interface{}{
				"is_voting": true,
				"deadline":  deadline,
			})
		if res.Error != nil {
			return res.Error
		}
		action := fmt.Sprintf("voting started for claim %d", e.ClaimID)
		return recordTransaction(tx, e.EventMeta, e.BountyID, e.From, action)
	})
}

// HandleVoteClaim records one ballot. The composite key includes the claim
// id, so a voter may vote on different claims of the same bounty, but a
// repeat cast on the same claim is a no-op: the first vote is binding.
func (p *Projector) HandleVoteClaim(ctx context.Context, e VoteClaim) error {
	l := log.WithFields(log.Fields{
		"action": "HandleVoteClaim",
		"chain":  e.ChainID,
		"bounty": e.BountyID,
		"claim":  e.ClaimID,
	})
	l.Debug("start")
	defer l.Debug("end")
	voter := strings.ToLower(e.Voter)
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.ensureUser(tx, voter); err != nil {
			return err
		}
		v := Vote{
			BountyID:  e.BountyID,
			ChainID:   e.ChainID,
			Voter:     voter,
			ClaimID:   e.ClaimID,
			Vote:      true,
			Timestamp: e.Timestamp,
		}
		if res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&v); res.Error != nil {
			return res.Error
		}
		action := fmt.Sprintf("voted on claim %d", e.ClaimID)
		return recordTransaction(tx, e.EventMeta, e.BountyID, voter, action)
	})
}

// HandleVotingPeriodReset clears the voting flag and deadline. The reset is
// unconditional for any known bounty.
func (p *Projector) HandleVotingPeriodReset(ctx context.Context, e VotingPeriodReset) error {
	l := log.WithFields(log.Fields{
		"action": "HandleVotingPeriodReset",
		"chain":  e.ChainID,
		"bounty": e.BountyID,
	})
	l.Debug("start")
	defer l.Debug("end")
	return p.db.Transaction(func(tx *gorm.DB) error {
		_, found, err := getBounty(tx, e.BountyID, e.ChainID)
		if err != nil {
			return err
		}
		if !found {
			l.Warn("bounty not found, dropping voting reset")
			return dropf("bounty %d not found on chain %d", e.BountyID, e.ChainID)
		}
		res := tx.Model(&Bounty{}).
			Where("id = ? AND chain_id = ?", e.BountyID, e.ChainID).
			Updates(map[string]interface{}{
				"is_voting": false,
				"deadline":  nil,
			})
		if res.Error != nil {
			return res.Error
		}
		return recordTransaction(tx, e.EventMeta, e.BountyID, e.From, "voting period reset")
	})
}
