package projection

// EventMeta carries the chain coordinates every decoded event arrives with.
// Ordering within a chain is (BlockNumber, TxIndex, LogIndex); the engine
// assumes the listener delivers events in that order, gap-free.
type EventMeta struct {
	ChainID     int64
	TxHash      string
	TxIndex     int64
	LogIndex    int64
	BlockNumber uint64
	Timestamp   int64
}

// Event is a decoded contract event ready for projection.
type Event interface {
	Meta() EventMeta
	Name() string
}

// BountyCreated unifies the solo/open/token creation variants: every bounty
// arrives with an explicit token type and winner budget.
type BountyCreated struct {
	EventMeta
	BountyID     int64
	Issuer       string
	Title        string
	Description  string
	Amount       string
	MaxWinners   int
	TokenType    int
	TokenAddress string
	CreatedAt    int64
}

func (e BountyCreated) Meta() EventMeta { return e.EventMeta }
func (e BountyCreated) Name() string    { return "TokenBountyCreated" }

type BountyCanceled struct {
	EventMeta
	BountyID int64
	Issuer   string
}

func (e BountyCanceled) Meta() EventMeta { return e.EventMeta }
func (e BountyCanceled) Name() string    { return "BountyCancelled" }

type BountyJoined struct {
	EventMeta
	BountyID    int64
	Participant string
	Amount      string
}

func (e BountyJoined) Meta() EventMeta { return e.EventMeta }
func (e BountyJoined) Name() string    { return "BountyJoined" }

type WithdrawFromOpenBounty struct {
	EventMeta
	BountyID    int64
	Participant string
	Amount      string
}

func (e WithdrawFromOpenBounty) Meta() EventMeta { return e.EventMeta }
func (e WithdrawFromOpenBounty) Name() string    { return "WithdrawFromOpenBounty" }

type ClaimCreated struct {
	EventMeta
	ClaimID      int64
	Issuer       string
	BountyID     int64
	BountyIssuer string
	Title        string
	Description  string
	CreatedAt    int64
}

func (e ClaimCreated) Meta() EventMeta { return e.EventMeta }
func (e ClaimCreated) Name() string    { return "ClaimCreated" }

// ClaimAccepted carries the contract's issuer fields; ClaimIssuer overrides
// the stored claim issuer as winner identity when present.
type ClaimAccepted struct {
	EventMeta
	BountyID     int64
	ClaimID      int64
	ClaimIssuer  string
	BountyIssuer string
	Fee          string
}

func (e ClaimAccepted) Meta() EventMeta { return e.EventMeta }
func (e ClaimAccepted) Name() string    { return "ClaimAccepted" }

type ClaimSubmittedForVote struct {
	EventMeta
	BountyID int64
	ClaimID  int64
	From     string
}

func (e ClaimSubmittedForVote) Meta() EventMeta { return e.EventMeta }
func (e ClaimSubmittedForVote) Name() string    { return "ClaimSubmittedForVote" }

type VoteClaim struct {
	EventMeta
	Voter    string
	BountyID int64
	ClaimID  int64
}

func (e VoteClaim) Meta() EventMeta { return e.EventMeta }
func (e VoteClaim) Name() string    { return "VoteClaim" }

type VotingPeriodReset struct {
	EventMeta
	BountyID int64
	From     string
}

func (e VotingPeriodReset) Meta() EventMeta { return e.EventMeta }
func (e VotingPeriodReset) Name() string    { return "VotingPeriodReset" }

// NFTTransfer is the companion NFT contract's Transfer event; TokenID equals
// the claim id it represents.
type NFTTransfer struct {
	EventMeta
	From    string
	To      string
	TokenID int64
}

func (e NFTTransfer) Meta() EventMeta { return e.EventMeta }
func (e NFTTransfer) Name() string    { return "Transfer" }
