package projection

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HandleBountyCanceled marks a bounty canceled and out of progress. Unknown
// bounties are dropped rather than synthesized, and a bounty that already
// reached a terminal state keeps its flags.
func (p *Projector) HandleBountyCanceled(ctx context.Context, e BountyCanceled) error {
	l := log.WithFields(log.Fields{
		"action": "HandleBountyCanceled",
		"chain":  e.ChainID,
		"bounty": e.BountyID,
	})
	l.Debug("start")
	defer l.Debug("end")
	issuer := strings.ToLower(e.Issuer)
	return p.db.Transaction(func(tx *gorm.DB) error {
		b, found, err := getBounty(tx, e.BountyID, e.ChainID)
		if err != nil {
			return err
		}
		if !found {
			l.Warn("bounty not found, dropping cancellation")
			return dropf("bounty %d not found on chain %d", e.BountyID, e.ChainID)
		}
		if !b.InProgress {
			l.Warn("bounty already terminal, dropping cancellation")
			return dropf("bounty %d on chain %d is not in progress", e.BountyID, e.ChainID)
		}
		res := tx.Model(&Bounty{}).
			Where("id = ? AND chain_id = ?", e.BountyID, e.ChainID).
			Updates(map[string]interface{}{
				"is_canceled": true,
				"in_progress": false,
			})
		if res.Error != nil {
			return res.Error
		}
		return recordTransaction(tx, e.EventMeta, e.BountyID, issuer, "bounty canceled")
	})
}
