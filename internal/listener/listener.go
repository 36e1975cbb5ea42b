package listener

import (
	"context"
	"errors"
	"math/big"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"

	"github.com/KcPele/enb-bounty-indexer/internal/chain"
	"github.com/KcPele/enb-bounty-indexer/internal/projection"
)

// The listener is the adapter between the RPC collaborator and the
// projection engine. It polls eth_getLogs per chain, decodes, sorts into
// canonical order and applies events one at a time. It carries no reorg
// handling: CONFIRM_BLOCKS keeps it behind the head, and anything beyond
// that is the upstream's problem by design.

const (
	defaultPollInterval  = time.Second * 5
	defaultMaxBlockRange = uint64(2000)
	applyRetries         = 10
)

// Run polls one chain until the context ends. Chains are independent;
// callers start one Run per configured chain.
func Run(ctx context.Context, chainID int64, p *projection.Projector) {
	l := log.WithFields(log.Fields{
		"action": "Run",
		"chain":  chainID,
	})
	l.Debug("start")
	defer l.Debug("end")
	interval := defaultPollInterval
	if os.Getenv("POLL_INTERVAL") != "" {
		var err error
		interval, err = time.ParseDuration(os.Getenv("POLL_INTERVAL"))
		if err != nil {
			l.WithError(err).Fatal("failed to parse POLL_INTERVAL")
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if err := pollOnce(ctx, chainID, p); err != nil {
			l.WithError(err).Error("poll failed")
		}
	}
}

// pollOnce projects every decoded event between the cursor and the
// confirmed head, then advances the cursor.
func pollOnce(ctx context.Context, chainID int64, p *projection.Projector) error {
	l := log.WithFields(log.Fields{
		"action": "pollOnce",
		"chain":  chainID,
	})
	l.Debug("start")
	defer l.Debug("end")
	c, err := chain.GetClient(chainID)
	if err != nil {
		return err
	}
	end, err := confirmedHead(ctx, c)
	if err != nil {
		return err
	}
	cursor := &ChainCursor{ChainID: chainID}
	from := cursor.GetLastBlock() + 1
	if sb := chain.StartBlock(chainID); from < sb {
		from = sb
	}
	if from > end {
		l.Debug("no new blocks")
		return nil
	}
	maxRange := defaultMaxBlockRange
	if os.Getenv("MAX_BLOCK_RANGE") != "" {
		mr, perr := strconv.ParseUint(os.Getenv("MAX_BLOCK_RANGE"), 10, 64)
		if perr != nil {
			return perr
		}
		maxRange = mr
	}
	for from <= end {
		to := from + maxRange - 1
		if to > end {
			to = end
		}
		if err := projectRange(ctx, c, chainID, p, from, to); err != nil {
			return err
		}
		if err := cursor.Advance(to); err != nil {
			return err
		}
		from = to + 1
	}
	return nil
}

func confirmedHead(ctx context.Context, c *ethclient.Client) (uint64, error) {
	head, err := c.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	confirm := 0
	if os.Getenv("CONFIRM_BLOCKS") != "" {
		var perr error
		confirm, perr = strconv.Atoi(os.Getenv("CONFIRM_BLOCKS"))
		if perr != nil {
			return 0, perr
		}
	}
	if uint64(confirm) >= head {
		return 0, nil
	}
	return head - uint64(confirm), nil
}

// projectRange fetches, decodes, orders and applies one block window.
func projectRange(ctx context.Context, c *ethclient.Client, chainID int64, p *projection.Projector, from, to uint64) error {
	l := log.WithFields(log.Fields{
		"action": "projectRange",
		"chain":  chainID,
		"from":   from,
		"to":     to,
	})
	l.Debug("start")
	defer l.Debug("end")
	bountyAddr, nftAddr := chain.Contracts(chainID)
	var addresses []common.Address
	if bountyAddr != "" {
		addresses = append(addresses, common.HexToAddress(bountyAddr))
	}
	if nftAddr != "" {
		addresses = append(addresses, common.HexToAddress(nftAddr))
	}
	if len(addresses) == 0 {
		return errors.New("no contract addresses configured for chain")
	}
	logs, err := c.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addresses,
	})
	if err != nil {
		return err
	}
	// Canonical per-chain ordering: block height, then tx index, then log
	// index. FilterLogs usually returns this order already; sorting makes
	// it a guarantee instead of an assumption.
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		if logs[i].TxIndex != logs[j].TxIndex {
			return logs[i].TxIndex < logs[j].TxIndex
		}
		return logs[i].Index < logs[j].Index
	})
	timestamps := make(map[uint64]int64)
	for _, lg := range logs {
		ts, err := blockTimestamp(ctx, c, lg.BlockNumber, timestamps)
		if err != nil {
			return err
		}
		ev, perr := ParseLog(lg, chainID, ts)
		if errors.Is(perr, errUnknownEvent) {
			continue
		}
		if perr != nil {
			l.WithError(perr).WithField("tx", lg.TxHash.Hex()).Error("failed to decode log")
			return perr
		}
		if err := applyWithRetry(ctx, p, ev); err != nil {
			return err
		}
	}
	return nil
}

// applyWithRetry applies one event, retrying transient store failures.
// Dropped events are final: they log a warning and never retry.
func applyWithRetry(ctx context.Context, p *projection.Projector, ev projection.Event) error {
	l := log.WithFields(log.Fields{
		"action": "applyWithRetry",
		"event":  ev.Name(),
		"chain":  ev.Meta().ChainID,
		"tx":     ev.Meta().TxHash,
	})
	var err error
	for retries := 0; retries < applyRetries; retries++ {
		err = p.Apply(ctx, ev)
		if err == nil {
			return nil
		}
		if errors.Is(err, projection.ErrDropped) {
			l.WithError(err).Warn("event dropped")
			return nil
		}
		l.WithError(err).Error("failed to apply event")
		time.Sleep(time.Duration(retries+1) * time.Second)
	}
	return err
}

func blockTimestamp(ctx context.Context, c *ethclient.Client, number uint64, cache map[uint64]int64) (int64, error) {
	if ts, ok := cache[number]; ok {
		return ts, nil
	}
	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}
	ts := int64(header.Time)
	cache[number] = ts
	return ts, nil
}
