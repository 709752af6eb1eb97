/*
handlers.go - HTTP API handlers for the NEU ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Members:
    GET    /api/members                     List members
    POST   /api/members                     Create member
    GET    /api/members/{id}                Get member
    GET    /api/members/{id}/balance        Stored balance snapshot
    GET    /api/members/{id}/shifts         Shift history
    GET    /api/members/{id}/transactions   Transaction history
    GET    /api/members/{id}/notifications  Notifications
    POST   /api/members/{id}/recalculate    Force one recalculation

  Shifts:
    POST   /api/shifts                      Create shift (points derived)
    DELETE /api/shifts/{id}                 Delete shift + mirror rows

  Volunteering:
    GET    /api/volunteering/actions        Action catalogue
    POST   /api/volunteering/actions        Create catalogued action
    POST   /api/volunteering/declarations   Declare a volunteer action
    DELETE /api/volunteering/declarations/{id}

  Transfers:
    POST   /api/transfers                   Peer/association/admin transfer

  Subscriptions:
    GET    /api/subscriptions               List active subscriptions
    POST   /api/subscriptions               Create subscription

  Admin:
    POST   /api/admin/recalculate           Bulk recalculation, every member

MUTATION FLOW:
  Every write persists raw events only, then calls the Recalculator for
  each affected member. No handler ever touches the balance fields.

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 404: Member/shift/declaration not found
  - 409: Insufficient balance on a transfer
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - notifier.go: Subscription expiry sweep
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coworkhub/neu-engine/ledger"
	"github.com/coworkhub/neu-engine/neu"
	"github.com/coworkhub/neu-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Recalc *ledger.Recalculator
}

// NewHandler creates a new handler over the store, wiring the recalculator
// as the sole writer of balance fields.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Recalc: ledger.NewRecalculator(store, store),
	}
}

// recalculate runs one recalculation with metrics, returning the snapshot.
func (h *Handler) recalculate(r *http.Request, id neu.MemberID) (neu.BalanceSnapshot, error) {
	start := time.Now()
	snap, err := h.Recalc.Recalculate(r.Context(), id)
	RecalculationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		reason := "internal"
		if neu.IsNotFound(err) {
			reason = "not_found"
		}
		RecalculationErrors.WithLabelValues(reason).Inc()
		return snap, err
	}
	RecalculationsTotal.Inc()
	return snap, nil
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// ListMembers returns all members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.ListMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMember creates a new member.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	profile := ledger.Profile(req.Profile)
	switch profile {
	case "", ledger.ProfileMember:
		profile = ledger.ProfileMember
	case ledger.ProfileEmployee, ledger.ProfileAssociation:
	default:
		writeError(w, http.StatusBadRequest, "Invalid profile (member|employee|association)", nil)
		return
	}

	m := ledger.Member{
		ID:      neu.MemberID(req.ID),
		Name:    req.Name,
		Email:   req.Email,
		Profile: profile,
	}
	if err := h.Store.SaveMember(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberDTO(m))
}

// GetMember returns a single member.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := neu.MemberID(chi.URLParam(r, "id"))
	m, err := h.Store.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDTO(*m))
}

// GetBalance returns the stored balance snapshot for a member.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := neu.MemberID(chi.URLParam(r, "id"))
	m, err := h.Store.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	dto := BalanceDTO{
		MemberID:            string(m.ID),
		Balance:             amountFloat(m.Balance),
		BalanceExpiringSoon: amountFloat(m.BalanceExpiringSoon),
		VolunteerHoursYear:  amountFloat(m.VolunteerHoursYear),
		AsOf:                time.Now().UTC().Format(time.RFC3339),
	}
	if m.NextExpiry != nil {
		s := m.NextExpiry.Format("2006-01-02")
		dto.NextExpiry = &s
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetTransactions returns a member's transaction history.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id := neu.MemberID(chi.URLParam(r, "id"))
	txs, err := h.Store.ListTransactionsByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetNotifications returns a member's notifications.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	id := neu.MemberID(chi.URLParam(r, "id"))
	notes, err := h.Store.ListNotificationsByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}

	dtos := make([]NotificationDTO, len(notes))
	for i, n := range notes {
		dtos[i] = NotificationDTO{
			ID:        n.ID,
			MemberID:  string(n.MemberID),
			Title:     n.Title,
			Body:      n.Body,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecalculateMember forces one recalculation for a member.
func (h *Handler) RecalculateMember(w http.ResponseWriter, r *http.Request) {
	id := neu.MemberID(chi.URLParam(r, "id"))
	snap, err := h.recalculate(r, id)
	if err != nil {
		if neu.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Member not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Recalculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(snap))
}

// RecalculateAll recalculates every member. Used for one-off migrations.
func (h *Handler) RecalculateAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Recalc.RecalculateAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Bulk recalculation failed", err)
		return
	}
	RecalculationsTotal.Add(float64(n))
	writeJSON(w, http.StatusOK, RecalculateAllResponse{Recalculated: n})
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift persists a shift with derived hours and points, mirrors it
// into the transaction log, and recalculates the owner.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := parseTimestamp(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use RFC3339)", err)
		return
	}
	end, err := parseTimestamp(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use RFC3339)", err)
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end must be after start", nil)
		return
	}

	ctx := r.Context()
	memberID := neu.MemberID(req.MemberID)
	member, err := h.Store.GetMember(ctx, memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	breakdown := neu.ShiftPoints(start, end)
	points := breakdown.Points
	if member.Profile.NonEarning() {
		// Hours stay recorded for scheduling; points are forced to zero.
		points = neu.ZeroAmount(neu.UnitPoints)
	}

	shift := sqlite.Shift{
		ID:       uuid.NewString(),
		MemberID: memberID,
		Start:    start,
		End:      end,
		Hours:    breakdown.Hours,
		Points:   points,
		DayType:  neu.ShiftDayType(start),
	}
	if err := h.Store.SaveShift(ctx, shift); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift", err)
		return
	}

	if points.IsPositive() {
		mirror := ledger.Transaction{
			ID:         neu.TransactionID(uuid.NewString()),
			To:         &memberID,
			Amount:     points,
			Type:       neu.TxShiftEarning,
			Memo:       fmt.Sprintf("Shift %s", start.Format("2006-01-02")),
			OccurredAt: start,
			ShiftID:    shift.ID,
		}
		if err := h.Store.AppendTransaction(ctx, mirror); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to record shift earning", err)
			return
		}
	}

	if _, err := h.recalculate(r, memberID); err != nil {
		writeError(w, http.StatusInternalServerError, "Recalculation failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, toShiftDTO(shift))
}

// ListShifts returns a member's shifts.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	id := neu.MemberID(chi.URLParam(r, "id"))
	shifts, err := h.Store.ListShiftsByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, sh := range shifts {
		dtos[i] = toShiftDTO(sh)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DeleteShift removes a shift and its mirror rows, then recalculates.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	shift, err := h.Store.GetShift(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get shift", err)
		return
	}
	if shift == nil {
		writeError(w, http.StatusNotFound, "Shift not found", nil)
		return
	}

	if err := h.Store.DeleteShift(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete shift", err)
		return
	}
	if _, err := h.recalculate(r, shift.MemberID); err != nil {
		writeError(w, http.StatusInternalServerError, "Recalculation failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// VOLUNTEERING HANDLERS
// =============================================================================

// ListActions returns the volunteer action catalogue.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.Store.ListActions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions", err)
		return
	}

	dtos := make([]ActionDTO, len(actions))
	for i, a := range actions {
		dtos[i] = ActionDTO{ID: a.ID, Name: a.Name, Points: amountFloat(a.Points)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAction adds a catalogued volunteer action with a fixed point value.
func (h *Handler) CreateAction(w http.ResponseWriter, r *http.Request) {
	var req CreateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	a := sqlite.Action{
		ID:     req.ID,
		Name:   req.Name,
		Points: neu.Amount{Value: decimal.NewFromFloat(req.Points).Round(2), Unit: neu.UnitPoints},
	}
	if err := h.Store.SaveAction(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save action", err)
		return
	}
	writeJSON(w, http.StatusCreated, ActionDTO{ID: a.ID, Name: a.Name, Points: amountFloat(a.Points)})
}

// CreateDeclaration records a volunteering declaration. Points come from the
// linked catalogued action; free-form hour entries earn zero points. The
// declaration is confirmed on creation and mirrored into the transaction log.
func (h *Handler) CreateDeclaration(w http.ResponseWriter, r *http.Request) {
	var req CreateDeclarationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	declaredAt, err := parseTimestamp(req.DeclaredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid declared_at (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	memberID := neu.MemberID(req.MemberID)
	member, err := h.Store.GetMember(ctx, memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}

	points := neu.ZeroAmount(neu.UnitPoints)
	if req.ActionID != "" {
		action, err := h.Store.GetAction(ctx, req.ActionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get action", err)
			return
		}
		if action == nil {
			writeError(w, http.StatusNotFound, "Action not found", nil)
			return
		}
		points = action.Points
	}

	decl := sqlite.Declaration{
		ID:         uuid.NewString(),
		MemberID:   memberID,
		ActionID:   req.ActionID,
		Hours:      neu.Amount{Value: decimal.NewFromFloat(req.Hours).Round(2), Unit: neu.UnitHours},
		Points:     points,
		DeclaredAt: declaredAt,
		Confirmed:  true,
	}
	if err := h.Store.SaveDeclaration(ctx, decl); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save declaration", err)
		return
	}

	if points.IsPositive() {
		mirror := ledger.Transaction{
			ID:            neu.TransactionID(uuid.NewString()),
			To:            &memberID,
			Amount:        points,
			Type:          neu.TxVolunteeringEarning,
			Memo:          fmt.Sprintf("Volunteering %s", declaredAt.Format("2006-01-02")),
			OccurredAt:    declaredAt,
			DeclarationID: decl.ID,
		}
		if err := h.Store.AppendTransaction(ctx, mirror); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to record volunteering earning", err)
			return
		}
	}

	if _, err := h.recalculate(r, memberID); err != nil {
		writeError(w, http.StatusInternalServerError, "Recalculation failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, DeclarationDTO{
		ID:         decl.ID,
		MemberID:   string(decl.MemberID),
		ActionID:   decl.ActionID,
		Hours:      amountFloat(decl.Hours),
		Points:     amountFloat(decl.Points),
		DeclaredAt: decl.DeclaredAt.Format("2006-01-02"),
		Confirmed:  decl.Confirmed,
	})
}

// DeleteDeclaration removes a declaration and its mirrors, then recalculates.
func (h *Handler) DeleteDeclaration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	decl, err := h.Store.GetDeclaration(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get declaration", err)
		return
	}
	if decl == nil {
		writeError(w, http.StatusNotFound, "Declaration not found", nil)
		return
	}

	if err := h.Store.DeleteDeclaration(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete declaration", err)
		return
	}
	if _, err := h.recalculate(r, decl.MemberID); err != nil {
		writeError(w, http.StatusInternalServerError, "Recalculation failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// TRANSFER HANDLERS
// =============================================================================

// CreateTransfer appends a peer transfer, association payment, or admin
// correction to the log, then recalculates both parties. The sender's
// stored balance is pre-validated here; the reconciler itself stays
// permissive about overspend.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	txType := neu.TransactionType(req.Type)
	if !neu.CountsAsSpend(txType) {
		writeError(w, http.StatusBadRequest,
			"Invalid type (peer_transfer|association_payment|admin_correction)",
			neu.ErrUnknownTransactionType)
		return
	}
	if req.From == "" && req.To == "" {
		writeError(w, http.StatusBadRequest, "At least one of from/to is required", nil)
		return
	}

	amount := neu.Amount{Value: decimal.NewFromFloat(req.Amount).Round(2), Unit: neu.UnitPoints}
	if !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Amount must be positive", neu.ErrInvalidAmount)
		return
	}

	occurredAt := time.Now().UTC()
	if req.Date != "" {
		t, err := parseTimestamp(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		occurredAt = t
	}

	ctx := r.Context()
	tx := ledger.Transaction{
		ID:         neu.TransactionID(uuid.NewString()),
		Amount:     amount,
		Type:       txType,
		Memo:       req.Memo,
		OccurredAt: occurredAt,
	}

	if req.From != "" {
		fromID := neu.MemberID(req.From)
		sender, err := h.Store.GetMember(ctx, fromID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get sender", err)
			return
		}
		if sender == nil {
			writeError(w, http.StatusNotFound, "Sender not found", nil)
			return
		}
		if sender.Balance.LessThan(amount) {
			writeError(w, http.StatusConflict, "Insufficient balance",
				&neu.InsufficientBalanceError{MemberID: fromID, Available: sender.Balance, Requested: amount})
			return
		}
		tx.From = &fromID
	}
	if req.To != "" {
		toID := neu.MemberID(req.To)
		receiver, err := h.Store.GetMember(ctx, toID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get receiver", err)
			return
		}
		if receiver == nil {
			writeError(w, http.StatusNotFound, "Receiver not found", nil)
			return
		}
		tx.To = &toID
	}

	if err := h.Store.AppendTransaction(ctx, tx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to append transaction", err)
		return
	}

	for _, party := range []*neu.MemberID{tx.From, tx.To} {
		if party == nil {
			continue
		}
		if _, err := h.recalculate(r, *party); err != nil {
			writeError(w, http.StatusInternalServerError, "Recalculation failed", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// =============================================================================
// SUBSCRIPTION HANDLERS
// =============================================================================

// ListSubscriptions returns all active subscriptions.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Store.ListActiveSubscriptions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list subscriptions", err)
		return
	}

	dtos := make([]SubscriptionDTO, len(subs))
	for i, sub := range subs {
		dtos[i] = SubscriptionDTO{
			ID:            sub.ID,
			MemberID:      string(sub.MemberID),
			Type:          sub.Type,
			Start:         sub.Start.Format("2006-01-02"),
			Expiry:        sub.Expiry.Format("2006-01-02"),
			EntriesLeft:   sub.EntriesLeft,
			RoomHoursLeft: amountFloat(sub.RoomHoursLeft),
			Active:        sub.Active,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSubscription creates a subscription feeding the expiry sweep.
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := parseTimestamp(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use YYYY-MM-DD)", err)
		return
	}
	expiry, err := parseTimestamp(req.Expiry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expiry (use YYYY-MM-DD)", err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	sub := sqlite.Subscription{
		ID:            id,
		MemberID:      neu.MemberID(req.MemberID),
		Type:          req.Type,
		Start:         start,
		Expiry:        expiry,
		EntriesLeft:   req.EntriesLeft,
		RoomHoursLeft: neu.Amount{Value: decimal.NewFromFloat(req.RoomHoursLeft).Round(2), Unit: neu.UnitHours},
		Active:        true,
	}
	if err := h.Store.SaveSubscription(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save subscription", err)
		return
	}
	writeJSON(w, http.StatusCreated, SubscriptionDTO{
		ID:            sub.ID,
		MemberID:      string(sub.MemberID),
		Type:          sub.Type,
		Start:         sub.Start.Format("2006-01-02"),
		Expiry:        sub.Expiry.Format("2006-01-02"),
		EntriesLeft:   sub.EntriesLeft,
		RoomHoursLeft: amountFloat(sub.RoomHoursLeft),
		Active:        sub.Active,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func toMemberDTO(m ledger.Member) MemberDTO {
	dto := MemberDTO{
		ID:                  string(m.ID),
		Name:                m.Name,
		Email:               m.Email,
		Profile:             string(m.Profile),
		Balance:             amountFloat(m.Balance),
		BalanceExpiringSoon: amountFloat(m.BalanceExpiringSoon),
		VolunteerHoursYear:  amountFloat(m.VolunteerHoursYear),
	}
	if m.NextExpiry != nil {
		s := m.NextExpiry.Format("2006-01-02")
		dto.NextExpiry = &s
	}
	return dto
}

func toBalanceDTO(snap neu.BalanceSnapshot) BalanceDTO {
	dto := BalanceDTO{
		MemberID:            string(snap.MemberID),
		Balance:             amountFloat(snap.Balance),
		BalanceExpiringSoon: amountFloat(snap.ExpiringSoon),
		VolunteerHoursYear:  amountFloat(snap.VolunteerHours),
		AsOf:                snap.AsOf.UTC().Format(time.RFC3339),
	}
	if snap.NextExpiry != nil {
		s := snap.NextExpiry.Format("2006-01-02")
		dto.NextExpiry = &s
	}
	return dto
}

func toShiftDTO(sh sqlite.Shift) ShiftDTO {
	return ShiftDTO{
		ID:       sh.ID,
		MemberID: string(sh.MemberID),
		Start:    sh.Start.Format(time.RFC3339),
		End:      sh.End.Format(time.RFC3339),
		Hours:    amountFloat(sh.Hours),
		Points:   amountFloat(sh.Points),
		DayType:  string(sh.DayType),
	}
}

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:         string(tx.ID),
		Amount:     amountFloat(tx.Amount),
		Type:       string(tx.Type),
		Memo:       tx.Memo,
		OccurredAt: tx.OccurredAt.Format(time.RFC3339),
	}
	if tx.From != nil {
		dto.From = string(*tx.From)
	}
	if tx.To != nil {
		dto.To = string(*tx.To)
	}
	return dto
}

func amountFloat(a neu.Amount) float64 {
	f, _ := a.Value.Float64()
	return f
}

// parseTimestamp accepts RFC3339 or a bare YYYY-MM-DD date.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
