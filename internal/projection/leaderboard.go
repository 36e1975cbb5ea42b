package projection

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Leaderboard totals are global mutable aggregates. Every mutation here is a
// read-modify-write inside the caller's transaction, keyed on
// (address, chain), so concurrent handlers for different chains cannot lose
// updates to the same address.

// loadLeaderboard returns the entry for the address, creating a zeroed row
// if none exists yet.
func loadLeaderboard(tx *gorm.DB, address string, chainID int64) (*LeaderboardEntry, error) {
	address = strings.ToLower(address)
	entry := LeaderboardEntry{Address: address, ChainID: chainID}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if res.Error != nil {
		return nil, res.Error
	}
	res = tx.Where("address = ? AND chain_id = ?", address, chainID).First(&entry)
	if res.Error != nil {
		return nil, res.Error
	}
	return &entry, nil
}

func saveLeaderboard(tx *gorm.DB, entry *LeaderboardEntry) error {
	res := tx.Model(&LeaderboardEntry{}).
		Where("address = ? AND chain_id = ?", entry.Address, entry.ChainID).
		Updates(map[string]interface{}{
			"earned": entry.Earned,
			"paid":   entry.Paid,
			"nfts":   entry.Nfts,
		})
	return res.Error
}

// addPaid adds delta to the address's paid total. Negative deltas clamp the
// total at zero: withdrawing more than the tracked stake is an accepted
// lossy edge, not an error.
func addPaid(tx *gorm.DB, address string, chainID int64, delta float64) error {
	entry, err := loadLeaderboard(tx, address, chainID)
	if err != nil {
		return err
	}
	entry.Paid += delta
	if entry.Paid < 0 {
		entry.Paid = 0
	}
	return saveLeaderboard(tx, entry)
}

// addWin credits a winner's earned total and NFT count in one update.
func addWin(tx *gorm.DB, address string, chainID int64, earned float64) error {
	entry, err := loadLeaderboard(tx, address, chainID)
	if err != nil {
		return err
	}
	entry.Earned += earned
	entry.Nfts++
	return saveLeaderboard(tx, entry)
}

// setNftCount overwrites the address's NFT count with an exact recount of
// the claims it currently owns. Recounting instead of incrementing lets the
// projection self-heal from any missed transfer.
func setNftCount(tx *gorm.DB, address string, chainID int64) error {
	address = strings.ToLower(address)
	var count int64
	res := tx.Model(&Claim{}).Where("owner = ? AND chain_id = ?", address, chainID).Count(&count)
	if res.Error != nil {
		return res.Error
	}
	entry, err := loadLeaderboard(tx, address, chainID)
	if err != nil {
		return err
	}
	entry.Nfts = count
	return saveLeaderboard(tx, entry)
}

// GetLeaderboard returns the entry for an address on a chain, if present.
func GetLeaderboard(db *gorm.DB, address string, chainID int64) (*LeaderboardEntry, error) {
	var entry LeaderboardEntry
	res := db.Where("address = ? AND chain_id = ?", strings.ToLower(address), chainID).First(&entry)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &entry, nil
}
