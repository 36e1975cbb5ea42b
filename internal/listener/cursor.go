package listener

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/KcPele/enb-bounty-indexer/internal/db"
)

// ChainCursor tracks the last block whose events were projected for a
// chain. Restarting resumes from the cursor, so replays only happen when
// the cursor is deliberately rolled back.
type ChainCursor struct {
	ChainID   int64 `gorm:"uniqueIndex;not null"`
	LastBlock uint64
}

// GetLastBlock returns the last projected block for the chain, creating
// the cursor row on first use.
func (c *ChainCursor) GetLastBlock() uint64 {
	l := log.WithFields(log.Fields{
		"action": "GetLastBlock",
		"chain":  c.ChainID,
	})
	l.Debug("start")
	defer l.Debug("end")
	if c.ChainID == 0 {
		return 0
	}
	res := db.DB.FirstOrCreate(c, "chain_id = ?", c.ChainID)
	if res.Error != nil {
		l.WithError(res.Error).Error("error getting chain cursor")
		return 0
	}
	return c.LastBlock
}

// Advance moves the cursor forward to block if it is larger than the
// persisted value.
func (c *ChainCursor) Advance(block uint64) error {
	l := log.WithFields(log.Fields{
		"action": "Advance",
		"chain":  c.ChainID,
		"block":  block,
	})
	l.Debug("start")
	defer l.Debug("end")
	if c.ChainID == 0 {
		return errors.New("chain id is empty")
	}
	var cur ChainCursor
	res := db.DB.FirstOrCreate(&cur, "chain_id = ?", c.ChainID)
	if res.Error != nil {
		l.WithError(res.Error).Error("error getting chain cursor")
		return res.Error
	}
	if cur.LastBlock < block {
		res = db.DB.Model(&ChainCursor{}).
			Where("chain_id = ?", c.ChainID).
			Update("last_block", block)
		if res.Error != nil {
			l.WithError(res.Error).Error("error saving chain cursor")
			return res.Error
		}
	}
	return nil
}
