package chain

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"
)

var (
	// Clients holds one RPC client per configured chain id.
	Clients = make(map[int64]*ethclient.Client)
)

// GetClient returns the RPC client for a chain id.
func GetClient(chainID int64) (*ethclient.Client, error) {
	if c, ok := Clients[chainID]; ok {
		return c, nil
	}
	return nil, errors.New("blockchain client not found")
}

// Init connects one client per entry of ETH_ENDPOINTS, formatted as
// '<chainId>=<endpoint>' pairs separated by commas.
func Init() error {
	for _, e := range strings.Split(os.Getenv("ETH_ENDPOINTS"), ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		ss := strings.SplitN(e, "=", 2)
		if len(ss) != 2 {
			return errors.New("ETH_ENDPOINTS must be in the form of '<chainId>=<endpoint>'")
		}
		chainID, err := strconv.ParseInt(strings.TrimSpace(ss[0]), 10, 64)
		if err != nil {
			return errors.New("ETH_ENDPOINTS chain id must be numeric")
		}
		endpoint := strings.TrimSpace(ss[1])
		log.Infof("connecting to ethereum: chain=%d host=%s", chainID, endpoint)
		c, err := ethclient.Dial(endpoint)
		if err != nil {
			return err
		}
		Clients[chainID] = c
	}
	return nil
}

// ChainIDs lists the configured chains.
func ChainIDs() []int64 {
	ids := make([]int64, 0, len(Clients))
	for id := range Clients {
		ids = append(ids, id)
	}
	return ids
}

// Contracts returns the bounty and NFT contract addresses configured for a
// chain via BOUNTY_CONTRACT_<id> and BOUNTY_NFT_CONTRACT_<id>.
func Contracts(chainID int64) (bounty string, nft string) {
	id := strconv.FormatInt(chainID, 10)
	return os.Getenv("BOUNTY_CONTRACT_" + id), os.Getenv("BOUNTY_NFT_CONTRACT_" + id)
}

// StartBlock returns the first block to index for a chain, from
// START_BLOCK_<id>; zero when unset.
func StartBlock(chainID int64) uint64 {
	v := os.Getenv("START_BLOCK_" + strconv.FormatInt(chainID, 10))
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		log.WithError(err).Warnf("invalid START_BLOCK_%d", chainID)
		return 0
	}
	return n
}
