package projection

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandleClaimCreated inserts the claim row. First write wins: a conflicting
// insert is ignored so that richer data written by an NFT transfer read-back
// is never clobbered by a replayed creation event. The URL is left empty
// here; the creation event does not emit it.
func (p *Projector) HandleClaimCreated(ctx context.Context, e ClaimCreated) error {
	l := log.WithFields(log.Fields{
		"action": "HandleClaimCreated",
		"chain":  e.ChainID,
		"claim":  e.ClaimID,
		"bounty": e.BountyID,
	})
	l.Debug("start")
	defer l.Debug("end")
	issuer := strings.ToLower(e.Issuer)
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.ensureUser(tx, issuer); err != nil {
			return err
		}
		c := Claim{
			ID:          e.ClaimID,
			ChainID:     e.ChainID,
			Title:       e.Title,
			Description: e.Description,
			URL:         "",
			Issuer:      issuer,
			IsAccepted:  false,
			BountyID:    e.BountyID,
			Owner:       issuer,
		}
		if res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c); res.Error != nil {
			return res.Error
		}
		return recordTransaction(tx, e.EventMeta, e.BountyID, issuer, "claim created")
	})
}
