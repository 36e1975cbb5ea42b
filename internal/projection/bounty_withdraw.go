package projection

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HandleWithdraw removes a participant's stake from an open bounty. The
// exact base-unit amount is never floored, only the derived sort value and
// the participant's paid total clamp at zero.
func (p *Projector) HandleWithdraw(ctx context.Context, e WithdrawFromOpenBounty) error {
	l := log.WithFields(log.Fields{
		"action": "HandleWithdraw",
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
			l.Warn("bounty not found, dropping withdrawal")
			return dropf("bounty %d not found on chain %d", e.BountyID, e.ChainID)
		}
		decimals := TokenDecimals(b.TokenType)
		newAmount := subAmounts(b.Amount, e.Amount)
		newSort := NormalizeAmount(newAmount, decimals)
		if newSort < 0 {
			newSort = 0
		}
		res := tx.Model(&Bounty{}).
			Where("id = ? AND chain_id = ?", e.BountyID, e.ChainID).
			Updates(map[string]interface{}{
				"amount":      newAmount,
				"amount_sort": newSort,
			})
		if res.Error != nil {
			return res.Error
		}
		res = tx.Where("user_address = ? AND bounty_id = ? AND chain_id = ?",
			participant, e.BountyID, e.ChainID).Delete(&Participation{})
		if res.Error != nil {
			return res.Error
		}
		if err := recordTransaction(tx, e.EventMeta, e.BountyID, participant, "withdrew from bounty"); err != nil {
			return err
		}
		return addPaid(tx, participant, e.ChainID, -NormalizeAmount(e.Amount, decimals))
	})
}
