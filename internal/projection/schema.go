package projection

// Bounty is an on-chain escrow of value awaiting winning claims. Amount is
// the exact base-unit total as a decimal string; AmountSort is derived from
// it via NormalizeAmount and is never set independently.
type Bounty struct {
	ID      int64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ChainID int64 `gorm:"primaryKey;autoIncrement:false;index:idx_bounties_chain" json:"chainId"`

	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	AmountSort  float64 `json:"amountSort"`
	Issuer      string  `gorm:"index:idx_bounties_issuer" json:"issuer"`

	MaxWinners   int    `json:"maxWinners"`
	WinnersCount int    `json:"winnersCount"`
	TokenType    int    `gorm:"index:idx_bounties_token_type" json:"tokenType"`
	TokenAddress string `json:"tokenAddress"`

	InProgress    bool   `json:"inProgress"`
	IsCanceled    bool   `json:"isCanceled"`
	IsMultiplayer bool   `json:"isMultiplayer"`
	IsVoting      bool   `json:"isVoting"`
	Deadline      *int64 `json:"deadline"`
}

// Claim is a submission against a bounty, minted as an NFT whose token id
// equals the claim id. Owner tracks the current NFT holder, which diverges
// from Issuer after a transfer.
type Claim struct {
	ID      int64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ChainID int64 `gorm:"primaryKey;autoIncrement:false;index:idx_claims_chain" json:"chainId"`

	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Issuer      string `json:"issuer"`
	IsAccepted  bool   `json:"isAccepted"`
	BountyID    int64  `gorm:"index:idx_claims_bounty" json:"bountyId"`
	Owner       string `gorm:"index:idx_claims_owner" json:"owner"`
}

// User is a minimal existence record, auto-created on first appearance of an
// address in any event.
type User struct {
	Address string `gorm:"primaryKey" json:"address"`
}

// Participation is one user's staked amount in an open bounty. The issuer's
// initial stake is recorded at creation; withdrawals remove the row.
type Participation struct {
	UserAddress string `gorm:"primaryKey" json:"userAddress"`
	BountyID    int64  `gorm:"primaryKey;autoIncrement:false" json:"bountyId"`
	ChainID     int64  `gorm:"primaryKey;autoIncrement:false" json:"chainId"`
	Amount      string `json:"amount"`
}

// Transaction is an append-only audit record of one processed event.
// Duplicate inserts on the (tx, log index, chain) key are ignored, which is
// what makes event redelivery observable as a no-op.
type Transaction struct {
	Tx        string `gorm:"primaryKey" json:"tx"`
	LogIndex  int64  `gorm:"primaryKey;autoIncrement:false;column:log_index" json:"index"`
	ChainID   int64  `gorm:"primaryKey;autoIncrement:false" json:"chainId"`
	BountyID  int64  `json:"bountyId"`
	Address   string `json:"address"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// LeaderboardEntry keeps per-address running totals. Paid and Earned are
// normalized decimal sums; Nfts is the count of claim NFTs currently owned.
type LeaderboardEntry struct {
	Address string `gorm:"primaryKey;index:idx_leaderboard_address" json:"address"`
	ChainID int64  `gorm:"primaryKey;autoIncrement:false;index:idx_leaderboard_chain" json:"chainId"`
	Earned  float64 `json:"earned"`
	Paid    float64 `json:"paid"`
	Nfts    int64   `json:"nfts"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}

// BountyWinner is an append-only record of a winning claim and its payout.
// Amount is totalAmount / maxWinners with integer truncation; the remainder
// is never paid out (observed contract behavior, kept as-is).
type BountyWinner struct {
	BountyID  int64  `gorm:"primaryKey;autoIncrement:false;index:idx_winners_bounty" json:"bountyId"`
	ChainID   int64  `gorm:"primaryKey;autoIncrement:false" json:"chainId"`
	Winner    string `gorm:"primaryKey;index:idx_winners_winner" json:"winner"`
	ClaimID   int64  `json:"claimId"`
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// Vote is one ballot per (bounty, voter, claim). The first vote on the key
// is binding; later casts on the same key are ignored.
type Vote struct {
	BountyID  int64  `gorm:"primaryKey;autoIncrement:false;index:idx_votes_bounty" json:"bountyId"`
	ChainID   int64  `gorm:"primaryKey;autoIncrement:false" json:"chainId"`
	Voter     string `gorm:"primaryKey;index:idx_votes_voter" json:"voter"`
	ClaimID   int64  `gorm:"primaryKey;autoIncrement:false;index:idx_votes_claim" json:"claimId"`
	Vote      bool   `json:"vote"`
	Timestamp int64  `json:"timestamp"`
}

// SupportedToken caches ERC-20 metadata, fetched lazily on the first bounty
// that uses the token. ETH is seeded with the zero address.
type SupportedToken struct {
	Address   string `gorm:"primaryKey" json:"address"`
	ChainID   int64  `gorm:"primaryKey;autoIncrement:false;index:idx_tokens_chain" json:"chainId"`
	TokenType int    `gorm:"index:idx_tokens_type" json:"tokenType"`
	Symbol    string `json:"symbol"`
	Decimals  int    `json:"decimals"`
	Name      string `json:"name"`
}

// Models lists every projection table for migration.
func Models() []interface{} {
	return []interface{}{
		&Bounty{},
		&Claim{},
		&User{},
		&Participation{},
		&Transaction{},
		&LeaderboardEntry{},
		&BountyWinner{},
		&Vote{},
		&SupportedToken{},
	}
}
