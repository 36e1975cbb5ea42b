package projection

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandleClaimAccepted settles one winner: the claim flips to accepted, the
// bounty's winner count advances, a BountyWinner row records the payout, and
// the winner's earned/NFT totals grow. All of it lands or none of it does.
// Payout is totalAmount/maxWinners with truncation; the remainder is lost by
// contract design and deliberately not redistributed here.
func (p *Projector) HandleClaimAccepted(ctx context.Context, e ClaimAccepted) error {
	l := log.WithFields(log.Fields{
		"action": "HandleClaimAccepted",
		"chain":  e.ChainID,
		"bounty": e.BountyID,
		"claim":  e.ClaimID,
	})
	l.Debug("start")
	defer l.Debug("end")
	return p.db.Transaction(func(tx *gorm.DB) error {
		c, claimFound, err := getClaim(tx, e.ClaimID, e.ChainID)
		if err != nil {
			return err
		}
		b, bountyFound, err := getBounty(tx, e.BountyID, e.ChainID)
		if err != nil {
			return err
		}
		if !claimFound || !bountyFound {
			l.Warn("claim or bounty not found, dropping acceptance")
			return dropf("claim %d or bounty %d not found on chain %d", e.ClaimID, e.BountyID, e.ChainID)
		}
		maxWinners := b.MaxWinners
		if maxWinners < 1 {
			maxWinners = 1
		}
		if b.WinnersCount >= maxWinners {
			l.Warn("winner budget exhausted, dropping acceptance")
			return dropf("bounty %d on chain %d already has %d winners", e.BountyID, e.ChainID, b.WinnersCount)
		}
		winner := strings.ToLower(c.Issuer)
		if e.ClaimIssuer != "" && !strings.EqualFold(e.ClaimIssuer, ZeroAddress) {
			winner = strings.ToLower(e.ClaimIssuer)
		}
		decimals := TokenDecimals(b.TokenType)
		winnerAmount := splitAmount(b.Amount, maxWinners)
		amountSort := NormalizeAmount(winnerAmount, decimals)

		res := tx.Model(&Claim{}).
			Where("id = ? AND chain_id = ?", e.ClaimID, e.ChainID).
			Update("is_accepted", true)
		if res.Error != nil {
			return res.Error
		}
		newWinnersCount := b.WinnersCount + 1
		res = tx.Model(&Bounty{}).
			Where("id = ? AND chain_id = ?", e.BountyID, e.ChainID).
			Updates(map[string]interface{}{
				"winners_count": newWinnersCount,
				"in_progress":   newWinnersCount < maxWinners,
			})
		if res.Error != nil {
			return res.Error
		}
		w := BountyWinner{
			BountyID:  e.BountyID,
			ChainID:   e.ChainID,
			Winner:    winner,
			ClaimID:   e.ClaimID,
			Amount:    winnerAmount,
			Timestamp: e.Timestamp,
		}
		if res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&w); res.Error != nil {
			return res.Error
		}
		if err := p.ensureUser(tx, winner); err != nil {
			return err
		}
		if err := addWin(tx, winner, e.ChainID, amountSort); err != nil {
			return err
		}
		auditAddr := b.Issuer
		if e.BountyIssuer != "" && !strings.EqualFold(e.BountyIssuer, ZeroAddress) {
			auditAddr = e.BountyIssuer
		}
		action := fmt.Sprintf("claim accepted (winner %d/%d)", newWinnersCount, maxWinners)
		return recordTransaction(tx, e.EventMeta, e.BountyID, auditAddr, action)
	})
}
