package projection

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandleNFTTransfer reconciles a claim row with post-mint chain state. The
// token id equals the claim id; the token URI and the canonical claim struct
// are read back from the contracts and overwrite whatever the creation event
// left behind, since the chain is authoritative after minting. Both sides of
// the transfer then get an exact NFT recount.
func (p *Projector) HandleNFTTransfer(ctx context.Context, e NFTTransfer) error {
	l := log.WithFields(log.Fields{
		"action": "HandleNFTTransfer",
		"chain":  e.ChainID,
		"token":  e.TokenID,
		"from":   e.From,
		"to":     e.To,
	})
	l.Debug("start")
	defer l.Debug("end")
	from := strings.ToLower(e.From)
	to := strings.ToLower(e.To)

	// Best-effort reads; either failing degrades to a minimal update.
	var url string
	var onchain *OnchainClaim
	if p.reader != nil {
		var err error
		url, err = p.reader.TokenURI(ctx, e.ChainID, e.TokenID)
		if err != nil {
			l.WithError(err).Warn("tokenURI read failed")
			url = ""
		}
		onchain, err = p.reader.ClaimByID(ctx, e.ChainID, e.TokenID)
		if err != nil {
			l.WithError(err).Warn("claim read-back failed")
			onchain = nil
		}
	}

	title := ""
	description := ""
	var bountyID int64
	issuer := to
	if onchain != nil {
		title = onchain.Title
		description = onchain.Description
		bountyID = onchain.BountyID
		if onchain.Issuer != "" {
			issuer = strings.ToLower(onchain.Issuer)
		}
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.ensureUser(tx, to); err != nil {
			return err
		}
		c := Claim{
			ID:          e.TokenID,
			ChainID:     e.ChainID,
			Title:       title,
			Description: description,
			URL:         url,
			Issuer:      issuer,
			BountyID:    bountyID,
			Owner:       to,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}, {Name: "chain_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"owner", "url", "title", "description", "bounty_id", "issuer",
			}),
		}).Create(&c)
		if res.Error != nil {
			return res.Error
		}
		if !p.isIgnored(from) {
			if err := setNftCount(tx, from, e.ChainID); err != nil {
				return err
			}
		}
		if !p.isIgnored(to) {
			if err := setNftCount(tx, to, e.ChainID); err != nil {
				return err
			}
		}
		return nil
	})
}
