package projection

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// API exposes the read-only query surface over HTTP. Absent records come
// back as 404 or empty arrays; that is the only user-visible failure mode.
type API struct {
	DB *gorm.DB
}

// RegisterRoutes wires every endpoint onto the router. Literal-prefix routes
// are registered before their variable-path shadows so mux matches them
// first.
func (a *API) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/bounty/participations/{chainId}/{bountyId}", a.handleParticipations).Methods(http.MethodGet)
	r.HandleFunc("/bounty/claims/{chainId}/{bountyId}", a.handleClaimsByBounty).Methods(http.MethodGet)
	r.HandleFunc("/bounty/{chainId}/token/{tokenType}", a.handleBountiesByTokenType).Methods(http.MethodGet)
	r.HandleFunc("/bounty/{chainId}/multiplayer", a.handleMultiplayerBounties).Methods(http.MethodGet)
	r.HandleFunc("/bounty/{chainId}/{bountyId}/winners", a.handleBountyWinners).Methods(http.MethodGet)
	r.HandleFunc("/bounty/{chainId}/{bountyId}/votes", a.handleVotes).Methods(http.MethodGet)
	r.HandleFunc("/bounty/{chainId}/{bountyId}/voting-stats", a.handleVotingStats).Methods(http.MethodGet)
	r.HandleFunc("/bounty/{chainId}/{bountyId}", a.handleBounty).Methods(http.MethodGet)
	r.HandleFunc("/bounty/{chainId}", a.handleBounties).Methods(http.MethodGet)
	r.HandleFunc("/live/bounty/{chainId}", a.handleLiveBounties).Methods(http.MethodGet)
	r.HandleFunc("/voting/bounty/{chainId}", a.handleVotingBounties).Methods(http.MethodGet)
	r.HandleFunc("/past/bounty/{chainId}", a.handlePastBounties).Methods(http.MethodGet)
	r.HandleFunc("/claim/{chainId}/{claimId}", a.handleClaim).Methods(http.MethodGet)
	r.HandleFunc("/claim/{chainId}", a.handleClaims).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{chainId}", a.handleTokens).Methods(http.MethodGet)
	r.HandleFunc("/user/{address}/wins/{chainId}", a.handleUserWins).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard/{chainId}/{address}", a.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/graph", a.handleGraph).Methods(http.MethodPost)
}

func pathInt(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	jd, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(jd)
}

func (a *API) handleBounties(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetBountiesByChain(a.DB, chainID))
}

func (a *API) handleBounty(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	bountyID, ok2 := pathInt(r, "bountyId")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b := GetBounty(a.DB, chainID, bountyID)
	if b == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, b)
}

func (a *API) handleParticipations(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	bountyID, ok2 := pathInt(r, "bountyId")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetParticipations(a.DB, chainID, bountyID))
}

func (a *API) handleClaimsByBounty(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	bountyID, ok2 := pathInt(r, "bountyId")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetClaimsByBounty(a.DB, chainID, bountyID))
}

func (a *API) handleLiveBounties(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetLiveBounties(a.DB, chainID))
}

func (a *API) handleVotingBounties(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetVotingBounties(a.DB, chainID))
}

func (a *API) handlePastBounties(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetPastBounties(a.DB, chainID))
}

func (a *API) handleBountiesByTokenType(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	tokenType, ok2 := pathInt(r, "tokenType")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetBountiesByTokenType(a.DB, chainID, int(tokenType)))
}

func (a *API) handleMultiplayerBounties(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetMultiplayerBounties(a.DB, chainID))
}

func (a *API) handleBountyWinners(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	bountyID, ok2 := pathInt(r, "bountyId")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetBountyWinners(a.DB, chainID, bountyID))
}

func (a *API) handleVotes(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	bountyID, ok2 := pathInt(r, "bountyId")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetVotesByBounty(a.DB, chainID, bountyID))
}

func (a *API) handleVotingStats(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	bountyID, ok2 := pathInt(r, "bountyId")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetVotingStats(a.DB, chainID, bountyID))
}

func (a *API) handleClaims(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetClaimsByChain(a.DB, chainID))
}

func (a *API) handleClaim(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	claimID, ok2 := pathInt(r, "claimId")
	if !ok || !ok2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	c := GetClaim(a.DB, chainID, claimID)
	if c == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, c)
}

func (a *API) handleTokens(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetSupportedTokens(a.DB, chainID))
}

func (a *API) handleUserWins(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	address := mux.Vars(r)["address"]
	if !ok || address == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, GetUserWins(a.DB, chainID, address))
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	chainID, ok := pathInt(r, "chainId")
	address := mux.Vars(r)["address"]
	if !ok || address == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	entry, err := GetLeaderboard(a.DB, address, chainID)
	if err != nil {
		log.WithError(err).Error("failed to load leaderboard entry")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, entry)
}
