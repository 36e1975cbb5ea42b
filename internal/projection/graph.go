package projection

import (
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// The graph endpoint is a generic filtered view over every projection
// entity: one POST body selects an entity and equality filters on a
// whitelisted field set, without exposing raw SQL.

// GraphQuery is the request body for POST /graph.
type GraphQuery struct {
	Entity  string                 `json:"entity"`
	Filters map[string]interface{} `json:"filters"`
	OrderBy string                 `json:"orderBy"`
	Desc    bool                   `json:"desc"`
	Limit   int                    `json:"limit"`
}

// graphEntity couples a model constructor with its queryable columns.
type graphEntity struct {
	rows    func() interface{}
	columns map[string]bool
}

var graphEntities = map[string]graphEntity{
	"bounties": {
		rows: func() interface{} { return &[]Bounty{} },
		columns: cols("id", "chain_id", "issuer", "token_type", "in_progress",
			"is_canceled", "is_multiplayer", "is_voting", "max_winners", "winners_count"),
	},
	"claims": {
		rows:    func() interface{} { return &[]Claim{} },
		columns: cols("id", "chain_id", "issuer", "owner", "bounty_id", "is_accepted"),
	},
	"users": {
		rows:    func() interface{} { return &[]User{} },
		columns: cols("address"),
	},
	"participations": {
		rows:    func() interface{} { return &[]Participation{} },
		columns: cols("user_address", "bounty_id", "chain_id"),
	},
	"transactions": {
		rows:    func() interface{} { return &[]Transaction{} },
		columns: cols("tx", "chain_id", "bounty_id", "address", "action"),
	},
	"leaderboard": {
		rows:    func() interface{} { return &[]LeaderboardEntry{} },
		columns: cols("address", "chain_id"),
	},
	"bountyWinners": {
		rows:    func() interface{} { return &[]BountyWinner{} },
		columns: cols("bounty_id", "chain_id", "winner", "claim_id"),
	},
	"votes": {
		rows:    func() interface{} { return &[]Vote{} },
		columns: cols("bounty_id", "chain_id", "voter", "claim_id", "vote"),
	},
	"supportedTokens": {
		rows:    func() interface{} { return &[]SupportedToken{} },
		columns: cols("address", "chain_id", "token_type", "symbol"),
	},
}

func cols(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// RunGraphQuery executes a whitelisted entity query and returns the rows.
func RunGraphQuery(db *gorm.DB, q GraphQuery) (interface{}, bool) {
	ent, ok := graphEntities[q.Entity]
	if !ok {
		return nil, false
	}
	dbc := db
	for field, value := range q.Filters {
		column := toSnake(field)
		if !ent.columns[column] {
			return nil, false
		}
		if s, isString := value.(string); isString {
			value = strings.ToLower(s)
		}
		dbc = dbc.Where(column+" = ?", value)
	}
	if q.OrderBy != "" {
		column := toSnake(q.OrderBy)
		if !ent.columns[column] {
			return nil, false
		}
		if q.Desc {
			column += " DESC"
		}
		dbc = dbc.Order(column)
	}
	if q.Limit > 0 && q.Limit <= 1000 {
		dbc = dbc.Limit(q.Limit)
	}
	rows := ent.rows()
	dbc.Find(rows)
	return rows, true
}

// toSnake maps the JSON camelCase field names onto column names.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (a *API) handleGraph(w http.ResponseWriter, r *http.Request) {
	l := log.WithFields(log.Fields{"func": "handleGraph"})
	var q GraphQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		l.WithError(err).Error("failed to decode graph query")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rows, ok := RunGraphQuery(a.DB, q)
	if !ok {
		l.WithField("entity", q.Entity).Warn("rejected graph query")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, rows)
}
