package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KcPele/enb-bounty-indexer/internal/db"
)

// ErrDropped marks an event whose effects were intentionally discarded
// because a prerequisite row is missing (e.g. a join for an unknown bounty).
// The listener logs it and moves on; it is a policy, not a failure.
var ErrDropped = errors.New("event dropped")

// dropf wraps ErrDropped with the reason the event was discarded.
func dropf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrDropped)...)
}

// ContractReader is the read-only collaborator boundary to the chain. All
// three reads are best-effort: handlers degrade to defaults on error and
// never abort the surrounding transaction.
type ContractReader interface {
	// TokenMetadata reads symbol/decimals/name from an ERC-20 contract.
	TokenMetadata(ctx context.Context, chainID int64, token string) (symbol string, decimals int, name string, err error)
	// ClaimByID reads the canonical claim struct from the bounty contract.
	ClaimByID(ctx context.Context, chainID int64, claimID int64) (*OnchainClaim, error)
	// TokenURI reads the NFT token URI for a claim id.
	TokenURI(ctx context.Context, chainID int64, tokenID int64) (string, error)
}

// OnchainClaim is the claims(id) read-back from the bounty contract, used to
// backfill claim rows on NFT transfers.
type OnchainClaim struct {
	ID          int64
	Issuer      string
	BountyID    int64
	Title       string
	Description string
	Accepted    bool
}

// Flusher receives a notification after each applied event so downstream
// response caches can invalidate the chain's entries.
type Flusher func(chainID int64)

// Projector replays decoded contract events into the projection tables. Each
// handler runs as one database transaction; events for a single chain must
// be applied in canonical order.
type Projector struct {
	db      *gorm.DB
	reader  ContractReader
	flush   Flusher
	ignored map[string]bool
}

// Default set of burn/system addresses excluded from user creation and NFT
// recounts.
var defaultIgnoreAddresses = []string{
	"0x0000000000000000000000000000000000000000",
	"0xb502c5856f7244dccdd0264a541cc25675353d39",
	"0x2445bffc6ab9eec6c562f8d7ee325cddf1780814",
	"0x0aa50ce0d724cc28f8f7af4630c32377b4d5c27d",
}

// NewProjector builds a Projector. reader may be nil, in which case all
// external reads degrade to their defaults. ignore extends the built-in
// burn/system address list.
func NewProjector(db *gorm.DB, reader ContractReader, ignore []string) *Projector {
	ignored := make(map[string]bool)
	for _, a := range defaultIgnoreAddresses {
		ignored[a] = true
	}
	for _, a := range ignore {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			ignored[a] = true
		}
	}
	return &Projector{
		db:      db,
		reader:  reader,
		ignored: ignored,
	}
}

// OnFlush registers a per-chain cache invalidation callback.
func (p *Projector) OnFlush(f Flusher) {
	p.flush = f
}

func (p *Projector) isIgnored(address string) bool {
	return p.ignored[strings.ToLower(address)]
}

// Apply projects a single event. Handlers are atomic: either every write
// lands or none do. ErrDropped results leave the store untouched.
func (p *Projector) Apply(ctx context.Context, ev Event) error {
	l := log.WithFields(log.Fields{
		"action": "Apply",
		"event":  ev.Name(),
		"chain":  ev.Meta().ChainID,
		"tx":     ev.Meta().TxHash,
	})
	l.Debug("start")
	defer l.Debug("end")
	var err error
	switch e := ev.(type) {
	case BountyCreated:
		err = p.HandleBountyCreated(ctx, e)
	case BountyCanceled:
		err = p.HandleBountyCanceled(ctx, e)
	case BountyJoined:
		err = p.HandleBountyJoined(ctx, e)
	case WithdrawFromOpenBounty:
		err = p.HandleWithdraw(ctx, e)
	case ClaimCreated:
		err = p.HandleClaimCreated(ctx, e)
	case ClaimAccepted:
		err = p.HandleClaimAccepted(ctx, e)
	case ClaimSubmittedForVote:
		err = p.HandleClaimSubmittedForVote(ctx, e)
	case VoteClaim:
		err = p.HandleVoteClaim(ctx, e)
	case VotingPeriodReset:
		err = p.HandleVotingPeriodReset(ctx, e)
	case NFTTransfer:
		err = p.HandleNFTTransfer(ctx, e)
	default:
		l.Warn("unhandled event type")
		return nil
	}
	if err != nil {
		return err
	}
	if p.flush != nil {
		p.flush(ev.Meta().ChainID)
	}
	return nil
}

// ensureUser creates the minimal user row if the address is new. Ignored
// system addresses never get a row.
func (p *Projector) ensureUser(tx *gorm.DB, address string) error {
	if p.isIgnored(address) {
		return nil
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&User{Address: strings.ToLower(address)})
	return res.Error
}

// recordTransaction appends the audit row for an event. Conflicts on the
// (tx, log index, chain) key mean the event was already processed and are
// treated as success.
func recordTransaction(tx *gorm.DB, m EventMeta, bountyID int64, address, action string) error {
	t := Transaction{
		Tx:        m.TxHash,
		LogIndex:  m.LogIndex,
		ChainID:   m.ChainID,
		BountyID:  bountyID,
		Address:   strings.ToLower(address),
		Action:    action,
		Timestamp: m.Timestamp,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&t)
	if res.Error != nil && db.IsUniqueViolation(res.Error) {
		return nil
	}
	return res.Error
}

// getBounty fetches a bounty row inside the handler transaction, returning
// found=false when the row does not exist.
func getBounty(tx *gorm.DB, bountyID, chainID int64) (*Bounty, bool, error) {
	var b Bounty
	res := tx.Where("id = ? AND chain_id = ?", bountyID, chainID).First(&b)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &b, true, nil
}

func getClaim(tx *gorm.DB, claimID, chainID int64) (*Claim, bool, error) {
	var c Claim
	res := tx.Where("id = ? AND chain_id = ?", claimID, chainID).First(&c)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &c, true, nil
}
