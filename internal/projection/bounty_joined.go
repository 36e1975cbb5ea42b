package projection

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandleBountyJoined adds a participant's stake to an open bounty. A join
// for an unknown bounty is dropped: the event does not carry the token type,
// so a placeholder row could never be priced correctly.
func (p *Projector) HandleBountyJoined(ctx context.Context, e BountyJoined) error {
	l := log.WithFields(log.Fields{
		"action": "HandleBountyJoined",
		"chain":  e.ChainID,
		"bounty": e.BountyID,
	})
	l.Debug("start")
	defer l.Debug("end")
	participant := strings.ToLower(e.Participant)
	return p.db.Transaction(func(tx *gorm.DB) error {
		b, found, err := getBounty(tx, e.BountyID, e.ChainID)
		if err != nil {
			return err
		}
		if !found {
			l.Warn("bounty not found, dropping join")
			return dropf("bounty %d not found on chain %d", e.BountyID, e.ChainID)
		}
		if err := p.ensureUser(tx, participant); err != nil {
			return err
		}
		decimals := TokenDecimals(b.TokenType)
		newAmount := addAmounts(b.Amount, e.Amount)
		res := tx.Model(&Bounty{}).
			Where("id = ? AND chain_id = ?", e.BountyID, e.ChainID).
			Updates(map[string]interface{}{
				"amount":         newAmount,
				"amount_sort":    NormalizeAmount(newAmount, decimals),
				"is_multiplayer": true,
			})
		if res.Error != nil {
			return res.Error
		}
		part := Participation{
			UserAddress: participant,
			BountyID:    e.BountyID,
			ChainID:     e.ChainID,
			Amount:      e.Amount,
		}
		if res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&part); res.Error != nil {
			return res.Error
		}
		if err := recordTransaction(tx, e.EventMeta, e.BountyID, participant, "joined bounty"); err != nil {
			return err
		}
		return addPaid(tx, participant, e.ChainID, NormalizeAmount(e.Amount, decimals))
	})
}
