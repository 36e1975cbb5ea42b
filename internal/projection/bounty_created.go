package projection

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HandleBountyCreated projects a bounty creation event: the bounty row, the
// issuer's user row and implicit self-participation, the token metadata
// cache, the audit record, and the issuer's paid total.
func (p *Projector) HandleBountyCreated(ctx context.Context, e BountyCreated) error {
	l := log.WithFields(log.Fields{
		"action": "HandleBountyCreated",
		"chain":  e.ChainID,
		"bounty": e.BountyID,
	})
	l.Debug("start")
	defer l.Debug("end")
	issuer := strings.ToLower(e.Issuer)
	decimals := TokenDecimals(e.TokenType)
	amountSort := NormalizeAmount(e.Amount, decimals)

	// External read outside the write transaction so a slow or failing RPC
	// cannot hold locks; the result is deterministic defaults on error.
	token := p.resolveToken(ctx, e)

	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := p.ensureUser(tx, issuer); err != nil {
			return err
		}
		b := Bounty{
			ID:           e.BountyID,
			ChainID:      e.ChainID,
			Title:        e.Title,
			Description:  e.Description,
			Amount:       e.Amount,
			AmountSort:   amountSort,
			Issuer:       issuer,
			MaxWinners:   e.MaxWinners,
			WinnersCount: 0,
			TokenType:    e.TokenType,
			TokenAddress: strings.ToLower(e.TokenAddress),
			InProgress:   true,
		}
		if res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&b); res.Error != nil {
			return res.Error
		}
		if err := upsertToken(tx, token, e.TokenType != TokenETH); err != nil {
			return err
		}
		part := Participation{
			UserAddress: issuer,
			BountyID:    e.BountyID,
			ChainID:     e.ChainID,
			Amount:      e.Amount,
		}
		if res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&part); res.Error != nil {
			return res.Error
		}
		action := fmt.Sprintf("bounty created (%s)", TokenSymbol(e.TokenType))
		if err := recordTransaction(tx, e.EventMeta, e.BountyID, issuer, action); err != nil {
			return err
		}
		return addPaid(tx, issuer, e.ChainID, amountSort)
	})
}

// resolveToken builds the SupportedToken row for the bounty's denomination.
// For ERC-20 bounties the metadata comes from an on-chain read that degrades
// to type-implied defaults; the native currency gets a synthetic row.
func (p *Projector) resolveToken(ctx context.Context, e BountyCreated) SupportedToken {
	l := log.WithFields(log.Fields{
		"action": "resolveToken",
		"chain":  e.ChainID,
		"token":  e.TokenAddress,
	})
	if e.TokenType == TokenETH || e.TokenAddress == "" || strings.EqualFold(e.TokenAddress, ZeroAddress) {
		return SupportedToken{
			Address:   ZeroAddress,
			ChainID:   e.ChainID,
			TokenType: TokenETH,
			Symbol:    "ETH",
			Decimals:  18,
			Name:      "Ether",
		}
	}
	symbol := "TOKEN"
	decimals := TokenDecimals(e.TokenType)
	name := "ENB Token"
	if e.TokenType == TokenUSDC {
		name = "USD Coin"
	}
	if p.reader != nil {
		s, d, n, err := p.reader.TokenMetadata(ctx, e.ChainID, e.TokenAddress)
		if err != nil {
			l.WithError(err).Warn("token metadata read failed, using defaults")
		} else {
			if s != "" {
				symbol = s
			}
			if d > 0 {
				decimals = d
			}
			if n != "" {
				name = n
			}
		}
	}
	return SupportedToken{
		Address:   strings.ToLower(e.TokenAddress),
		ChainID:   e.ChainID,
		TokenType: e.TokenType,
		Symbol:    symbol,
		Decimals:  decimals,
		Name:      name,
	}
}

// upsertToken caches token metadata. ERC-20 rows overwrite stale metadata;
// the synthetic native row is insert-or-ignore.
func upsertToken(tx *gorm.DB, token SupportedToken, overwrite bool) error {
	if overwrite {
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}, {Name: "chain_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"token_type", "symbol", "decimals", "name",
			}),
		}).Create(&token)
		return res.Error
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&token)
	return res.Error
}
