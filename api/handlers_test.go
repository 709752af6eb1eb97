/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Member creation and balance snapshots
- Shift creation with tariff-derived points and mirror transactions
- Non-earning profiles (hours recorded, zero points)
- Transfers with stored-balance validation
- Shift deletion and the follow-up recalculation
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coworkhub/neu-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func setupTestServer(t *testing.T) (*httptest.Server, *Handler) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := NewHandler(store)
	// Pin the reconciliation clock so fixture dates never age out.
	handler.Recalc.Now = func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	server := httptest.NewServer(NewRouter(handler, []string{"*"}))
	t.Cleanup(server.Close)
	return server, handler
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createMember(t *testing.T, server *httptest.Server, id, profile string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/api/members", CreateMemberRequest{
		ID: id, Name: "Member " + id, Profile: profile,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// MEMBER TESTS
// =============================================================================

func TestCreateAndGetMember(t *testing.T) {
	server, _ := setupTestServer(t)

	createMember(t, server, "mem-1", "member")

	resp := doJSON(t, http.MethodGet, server.URL+"/api/members/mem-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decode[MemberDTO](t, resp)

	assert.Equal(t, "mem-1", m.ID)
	assert.Equal(t, "member", m.Profile)
	assert.Equal(t, 0.0, m.Balance)
}

func TestGetMember_NotFound(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/members/ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateMember_RejectsUnknownProfile(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/members", CreateMemberRequest{
		ID: "mem-1", Name: "X", Profile: "wizard",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// SHIFT TESTS
// =============================================================================

func TestCreateShift_DerivesPointsAndUpdatesBalance(t *testing.T) {
	// GIVEN: A member and a weekday shift crossing the 18:30 boundary
	// WHEN: Creating the shift via the API
	// THEN: Points are 3.25 and the stored balance reflects them

	server, _ := setupTestServer(t)
	createMember(t, server, "mem-1", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/shifts", CreateShiftRequest{
		MemberID: "mem-1",
		Start:    "2025-03-12T18:00:00Z",
		End:      "2025-03-12T19:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shift := decode[ShiftDTO](t, resp)

	assert.Equal(t, 3.25, shift.Points)
	assert.Equal(t, 1.0, shift.Hours)
	assert.Equal(t, "weekday-morning", shift.DayType)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-1/balance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bal := decode[BalanceDTO](t, resp)
	assert.Equal(t, 3.25, bal.Balance)
	assert.Equal(t, 3.25, bal.BalanceExpiringSoon)
	require.NotNil(t, bal.NextExpiry)
	assert.Equal(t, "2025-12-31", *bal.NextExpiry)
}

func TestCreateShift_NonEarningProfileEarnsNothing(t *testing.T) {
	// Employees work shifts for scheduling but never accrue points.
	server, _ := setupTestServer(t)
	createMember(t, server, "emp-1", "employee")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/shifts", CreateShiftRequest{
		MemberID: "emp-1",
		Start:    "2025-03-12T10:00:00Z",
		End:      "2025-03-12T14:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shift := decode[ShiftDTO](t, resp)

	assert.Equal(t, 0.0, shift.Points)
	assert.Equal(t, 4.0, shift.Hours)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/emp-1/balance", nil)
	bal := decode[BalanceDTO](t, resp)
	assert.Equal(t, 0.0, bal.Balance)
}

func TestCreateShift_RejectsInvertedInterval(t *testing.T) {
	server, _ := setupTestServer(t)
	createMember(t, server, "mem-1", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/shifts", CreateShiftRequest{
		MemberID: "mem-1",
		Start:    "2025-03-12T19:00:00Z",
		End:      "2025-03-12T18:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteShift_RemovesEarningAndRecalculates(t *testing.T) {
	// GIVEN: A member whose balance comes from a single shift
	// WHEN: The shift is deleted
	// THEN: The mirror transaction goes with it and the balance drops to zero

	server, _ := setupTestServer(t)
	createMember(t, server, "mem-1", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/shifts", CreateShiftRequest{
		MemberID: "mem-1",
		Start:    "2025-03-12T10:00:00Z",
		End:      "2025-03-12T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shift := decode[ShiftDTO](t, resp)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/shifts/"+shift.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-1/balance", nil)
	bal := decode[BalanceDTO](t, resp)
	assert.Equal(t, 0.0, bal.Balance)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-1/transactions", nil)
	txs := decode[[]TransactionDTO](t, resp)
	assert.Empty(t, txs)
}

// =============================================================================
// VOLUNTEERING TESTS
// =============================================================================

func TestDeclaration_CataloguedActionEarnsPoints(t *testing.T) {
	server, _ := setupTestServer(t)
	createMember(t, server, "mem-1", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/volunteering/actions", CreateActionRequest{
		ID: "cleaning", Name: "Space cleaning", Points: 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/volunteering/declarations", CreateDeclarationRequest{
		MemberID: "mem-1", ActionID: "cleaning", Hours: 2, DeclaredAt: "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decl := decode[DeclarationDTO](t, resp)
	assert.Equal(t, 5.0, decl.Points)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-1/balance", nil)
	bal := decode[BalanceDTO](t, resp)
	assert.Equal(t, 5.0, bal.Balance)
	assert.Equal(t, 2.0, bal.VolunteerHoursYear)
}

func TestDeclaration_FreeFormHoursEarnNoPoints(t *testing.T) {
	server, _ := setupTestServer(t)
	createMember(t, server, "mem-1", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/volunteering/declarations", CreateDeclarationRequest{
		MemberID: "mem-1", Hours: 3, DeclaredAt: "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-1/balance", nil)
	bal := decode[BalanceDTO](t, resp)
	assert.Equal(t, 0.0, bal.Balance)
	assert.Equal(t, 3.0, bal.VolunteerHoursYear)
}

// =============================================================================
// TRANSFER TESTS
// =============================================================================

func TestTransfer_MovesPointsBetweenMembers(t *testing.T) {
	// GIVEN: A sender with 12 points from a weekend shift
	// WHEN: Transferring 5 to another member
	// THEN: Both balances update

	server, _ := setupTestServer(t)
	createMember(t, server, "mem-a", "member")
	createMember(t, server, "mem-b", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/shifts", CreateShiftRequest{
		MemberID: "mem-a",
		Start:    "2025-03-15T09:00:00Z",
		End:      "2025-03-15T11:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/transfers", CreateTransferRequest{
		From: "mem-a", To: "mem-b", Amount: 5, Type: "peer_transfer", Date: "2025-04-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-a/balance", nil)
	assert.Equal(t, 7.0, decode[BalanceDTO](t, resp).Balance)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-b/balance", nil)
	assert.Equal(t, 5.0, decode[BalanceDTO](t, resp).Balance)
}

func TestTransfer_InsufficientBalanceRejected(t *testing.T) {
	server, _ := setupTestServer(t)
	createMember(t, server, "mem-a", "member")
	createMember(t, server, "mem-b", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/transfers", CreateTransferRequest{
		From: "mem-a", To: "mem-b", Amount: 5, Type: "peer_transfer",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-b/balance", nil)
	assert.Equal(t, 0.0, decode[BalanceDTO](t, resp).Balance)
}

func TestTransfer_AssociationPaymentNeedsNoReceiver(t *testing.T) {
	server, _ := setupTestServer(t)
	createMember(t, server, "mem-a", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/shifts", CreateShiftRequest{
		MemberID: "mem-a",
		Start:    "2025-03-15T09:00:00Z",
		End:      "2025-03-15T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/transfers", CreateTransferRequest{
		From: "mem-a", Amount: 2, Type: "association_payment", Memo: "meeting room", Date: "2025-04-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/members/mem-a/balance", nil)
	assert.Equal(t, 4.0, decode[BalanceDTO](t, resp).Balance)
}

func TestTransfer_RejectsEarningTypes(t *testing.T) {
	server, _ := setupTestServer(t)
	createMember(t, server, "mem-a", "member")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/transfers", CreateTransferRequest{
		To: "mem-a", Amount: 5, Type: "shift_earning",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// ADMIN TESTS
// =============================================================================

func TestRecalculateAllEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)
	for i := 1; i <= 3; i++ {
		createMember(t, server, fmt.Sprintf("mem-%d", i), "member")
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/admin/recalculate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[RecalculateAllResponse](t, resp)
	assert.Equal(t, 3, out.Recalculated)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}
