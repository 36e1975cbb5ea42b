package projection

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestAPI(t *testing.T) (*gorm.DB, http.Handler) {
	t.Helper()
	gdb := newTestDB(t)
	r := mux.NewRouter()
	api := &API{DB: gdb}
	api.RegisterRoutes(r)
	return gdb, r
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seedLifecycle(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	p := NewProjector(gdb, nil, nil)
	createBounty(t, p, 1, alice, "1000000000000000", 1, TokenETH)
	createBounty(t, p, 2, alice, "1000000000000000000", 2, TokenETH)
	createClaim(t, p, 1, 2, bob)
	require.NoError(t, p.Apply(context.Background(), BountyJoined{
		EventMeta: testMeta(1200), BountyID: 1, Participant: bob, Amount: "500000000000000",
	}))
	require.NoError(t, p.Apply(context.Background(), ClaimAccepted{
		EventMeta: testMeta(2000), BountyID: 2, ClaimID: 1,
	}))
	require.NoError(t, p.Apply(context.Background(), VoteClaim{
		EventMeta: testMeta(3100), Voter: carol, BountyID: 2, ClaimID: 1,
	}))
}

func TestAPIBounties(t *testing.T) {
	gdb, h := newTestAPI(t)
	seedLifecycle(t, gdb)

	rec := doGet(t, h, "/bounty/8453")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var bounties []Bounty
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bounties))
	assert.Len(t, bounties, 2)

	rec = doGet(t, h, "/bounty/8453/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var b Bounty
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, "1500000000000000", b.Amount)

	rec = doGet(t, h, "/bounty/8453/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, h, "/bounty/notachain/1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIPartitionRoutes(t *testing.T) {
	gdb, h := newTestAPI(t)
	seedLifecycle(t, gdb)

	rec := doGet(t, h, "/live/bounty/8453")
	require.Equal(t, http.StatusOK, rec.Code)
	var live []Bounty
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &live))
	require.Len(t, live, 1)
	assert.Equal(t, int64(1), live[0].ID)

	rec = doGet(t, h, "/past/bounty/8453")
	require.Equal(t, http.StatusOK, rec.Code)
	var past []Bounty
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &past))
	require.Len(t, past, 1)
	assert.Equal(t, int64(2), past[0].ID)
}

func TestAPILiteralPrefixRoutesNotShadowed(t *testing.T) {
	gdb, h := newTestAPI(t)
	seedLifecycle(t, gdb)

	// these paths share the /bounty prefix with variable routes; they must
	// hit their own handlers
	rec := doGet(t, h, "/bounty/participations/8453/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var parts []Participation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parts))
	assert.Len(t, parts, 2)

	rec = doGet(t, h, "/bounty/claims/8453/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var claims []Claim
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
	assert.Len(t, claims, 1)

	rec = doGet(t, h, "/bounty/8453/multiplayer")
	require.Equal(t, http.StatusOK, rec.Code)
	var multi []Bounty
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &multi))
	require.Len(t, multi, 1)
	assert.Equal(t, int64(1), multi[0].ID)

	rec = doGet(t, h, "/bounty/8453/2/winners")
	require.Equal(t, http.StatusOK, rec.Code)
	var winners []BountyWinner
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &winners))
	assert.Len(t, winners, 1)

	rec = doGet(t, h, "/bounty/8453/2/voting-stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats VotingStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalVotes)
}

func TestAPIClaimsTokensUsers(t *testing.T) {
	gdb, h := newTestAPI(t)
	seedLifecycle(t, gdb)

	rec := doGet(t, h, "/claim/8453/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var c Claim
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.True(t, c.IsAccepted)

	rec = doGet(t, h, "/claim/8453/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, h, "/tokens/8453")
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens []SupportedToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	assert.Len(t, tokens, 1)

	rec = doGet(t, h, "/user/"+bob+"/wins/8453")
	require.Equal(t, http.StatusOK, rec.Code)
	var wins []BountyWinner
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wins))
	require.Len(t, wins, 1)
	assert.Equal(t, bob, wins[0].Winner)

	rec = doGet(t, h, "/leaderboard/8453/"+bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var entry LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.InDelta(t, 0.5, entry.Earned, 1e-12)

	rec = doGet(t, h, "/leaderboard/8453/0x00000000000000000000000000000000000000ee")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func doGraph(t *testing.T, h http.Handler, q GraphQuery) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(q)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graph", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGraphQuery(t *testing.T) {
	gdb, h := newTestAPI(t)
	seedLifecycle(t, gdb)

	rec := doGraph(t, h, GraphQuery{
		Entity:  "bounties",
		Filters: map[string]interface{}{"chainId": testChain, "inProgress": true},
		OrderBy: "id",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var bounties []Bounty
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bounties))
	require.Len(t, bounties, 1)
	assert.Equal(t, int64(1), bounties[0].ID)

	// string filters are matched case-insensitively via lowering
	rec = doGraph(t, h, GraphQuery{
		Entity:  "claims",
		Filters: map[string]interface{}{"issuer": "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var claims []Claim
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
	assert.Len(t, claims, 1)
}

func TestGraphQueryRejectsUnknown(t *testing.T) {
	gdb, h := newTestAPI(t)
	seedLifecycle(t, gdb)

	rec := doGraph(t, h, GraphQuery{Entity: "pg_tables"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// filters outside the column whitelist are rejected, not silently dropped
	rec = doGraph(t, h, GraphQuery{
		Entity:  "bounties",
		Filters: map[string]interface{}{"title; drop table bounties": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGraph(t, h, GraphQuery{Entity: "bounties", OrderBy: "amount; --"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/graph", bytes.NewReader([]byte("{not json")))
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}
