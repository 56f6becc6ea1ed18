package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/infra/logging"
	"gym-membership-backend/internal/usecase"
)

// ===== Membership types =====

type typeCreateRequest struct {
	Title       model.MembershipTitle `json:"title"`
	PriceNPR    int64                 `json:"price_npr"`
	Duration    model.Duration        `json:"duration"`
	Description string                `json:"description"`
}

func (s *Server) typesCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req typeCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	mt, err := s.typeUC.Create(r.Context(), req.Title, req.PriceNPR, req.Duration, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, mt)
}

func (s *Server) typesListHandler(w http.ResponseWriter, r *http.Request) {
	var (
		items []*model.MembershipType
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		items, err = s.typeUC.ListActive(r.Context())
	} else {
		items, err = s.typeUC.List(r.Context())
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Data []*model.MembershipType `json:"data"`
	}{Data: items})
}

func (s *Server) typesGetHandler(w http.ResponseWriter, r *http.Request) {
	mt, err := s.typeUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mt)
}

type typeUpdateRequest struct {
	Title       *model.MembershipTitle `json:"title"`
	PriceNPR    *int64                 `json:"price_npr"`
	Duration    *model.Duration        `json:"duration"`
	AccessStart *string                `json:"access_start"`
	AccessEnd   *string                `json:"access_end"`
	IsActive    *bool                  `json:"is_active"`
	Description *string                `json:"description"`
}

func (s *Server) typesUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req typeUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	mt, err := s.typeUC.Update(r.Context(), chi.URLParam(r, "id"), usecase.UpdateMembershipTypeParams{
		Title:       req.Title,
		PriceNPR:    req.PriceNPR,
		Duration:    req.Duration,
		AccessStart: req.AccessStart,
		AccessEnd:   req.AccessEnd,
		IsActive:    req.IsActive,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mt)
}

func (s *Server) typesDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.typeUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Memberships =====

type membershipCreateRequest struct {
	UserID string `json:"user_id"`
	TypeID string `json:"type_id"`
	Paid   bool   `json:"paid"`
}

func (s *Server) membershipsCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req membershipCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	m, err := s.membershipUC.Create(r.Context(), req.UserID, req.TypeID, req.Paid)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) membershipsListHandler(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePage(r)
	onlyActive := r.URL.Query().Get("active") == "true"
	items, total, err := s.membershipUC.List(r.Context(), onlyActive, offset, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: items, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) membershipsGetHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.membershipUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

type membershipUpdateRequest struct {
	TypeID        *string                        `json:"type_id"`
	StartDate     *time.Time                     `json:"start_date"`
	PaymentStatus *model.MembershipPaymentStatus `json:"payment_status"`
	IsActive      *bool                          `json:"is_active"`
}

func (s *Server) membershipsUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req membershipUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	m, err := s.membershipUC.Update(r.Context(), chi.URLParam(r, "id"), usecase.UpdateMembershipParams{
		TypeID:        req.TypeID,
		StartDate:     req.StartDate,
		PaymentStatus: req.PaymentStatus,
		IsActive:      req.IsActive,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) membershipsDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.membershipUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userMembershipsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.membershipUC.ListByUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Data []*model.MembershipDetail `json:"data"`
	}{Data: items})
}

func (s *Server) userMembershipStatusHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.membershipUC.CheckActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		HasActive     bool                    `json:"has_active"`
		DaysRemaining int                     `json:"days_remaining"`
		Membership    *model.MembershipDetail `json:"membership,omitempty"`
	}{
		HasActive:     st.HasActive,
		DaysRemaining: st.DaysRemaining,
		Membership:    st.Membership,
	})
}

// ===== Payments =====

type initiateRequest struct {
	UserID   string `json:"user_id"`
	TypeID   string `json:"type_id"`
	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer"`
}

func (s *Server) paymentsInitiateHandler(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	out, err := s.paymentUC.InitiatePurchase(r.Context(), req.UserID, req.TypeID, adapter.CustomerInfo{
		Name:  req.Customer.Name,
		Email: req.Customer.Email,
		Phone: req.Customer.Phone,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, struct {
		Payment     *model.Payment `json:"payment"`
		PaymentURL  string         `json:"payment_url"`
		Transaction string         `json:"transaction_id"`
	}{
		Payment:     out.Payment,
		PaymentURL:  out.PaymentURL,
		Transaction: out.Payment.TransactionID,
	})
}

// paymentsCallbackHandler handles the member's return from the gateway's
// hosted page. It is public: the token alone identifies the payment, and
// completion only happens after server-side verification.
func (s *Server) paymentsCallbackHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("pidx")
	if token == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "missing pidx"})
		return
	}
	p, err := s.paymentUC.ConfirmByToken(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}
	ctx := logging.WithPaymentID(logging.WithUserID(r.Context(), p.UserID), p.ID)
	logging.With(ctx, s.log).Info().Msg("callback settled payment")
	if s.successURL != "" {
		http.Redirect(w, r, s.successURL+"?payment_id="+p.ID, http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type webhookRequest struct {
	Pidx          string `json:"pidx"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// paymentsWebhookHandler sits behind the signature middleware. The reported
// amount is deliberately ignored: success is always re-verified against the
// gateway lookup endpoint.
func (s *Server) paymentsWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	p, err := s.paymentUC.HandleWebhook(r.Context(), usecase.WebhookEvent{
		Token:        req.Pidx,
		GatewayTxnID: req.TransactionID,
		Status:       req.Status,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		PaymentID string              `json:"payment_id"`
		Status    model.PaymentStatus `json:"status"`
	}{PaymentID: p.ID, Status: p.Status})
}

type refundRequest struct {
	Amount int64  `json:"amount"` // whole NPR; 0 or absent means full refund
	Reason string `json:"reason"`
}

func (s *Server) paymentsRefundHandler(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	p, err := s.paymentUC.Refund(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) paymentsGetHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.paymentUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) paymentsListHandler(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePage(r)
	items, total, err := s.paymentUC.ListDetails(r.Context(), offset, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: items, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) userPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePage(r)
	items, total, err := s.paymentUC.ListByUser(r.Context(), chi.URLParam(r, "id"), offset, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: items, Total: total, Limit: limit, Offset: offset})
}

// ===== Attendance =====

type checkInRequest struct {
	UserID   string                   `json:"user_id"`
	Method   model.VerificationMethod `json:"method"`
	DeviceID string                   `json:"device_id"`
	Notes    string                   `json:"notes"`
	At       *time.Time               `json:"at"` // defaults to now
}

func (s *Server) attendanceCheckInHandler(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	at := time.Now()
	if req.At != nil {
		at = *req.At
	}
	if req.Method == "" {
		req.Method = model.VerifyManual
	}
	a, err := s.attendanceUC.CheckIn(r.Context(), req.UserID, at, req.Method, req.DeviceID, req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

type checkOutRequest struct {
	UserID string     `json:"user_id"`
	At     *time.Time `json:"at"`
}

func (s *Server) attendanceCheckOutHandler(w http.ResponseWriter, r *http.Request) {
	var req checkOutRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	at := time.Now()
	if req.At != nil {
		at = *req.At
	}
	a, err := s.attendanceUC.CheckOut(r.Context(), req.UserID, at)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

type absentRequest struct {
	UserID string     `json:"user_id"`
	Date   *time.Time `json:"date"`
	Notes  string     `json:"notes"`
}

func (s *Server) attendanceAbsentHandler(w http.ResponseWriter, r *http.Request) {
	var req absentRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	a, err := s.attendanceUC.MarkAbsent(r.Context(), req.UserID, date, req.Notes)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

type bulkMarkRequest struct {
	Date    time.Time `json:"date"`
	Records []struct {
		UserID string                 `json:"user_id"`
		Status model.AttendanceStatus `json:"status"`
		Notes  string                 `json:"notes"`
	} `json:"records"`
}

func (s *Server) attendanceBulkHandler(w http.ResponseWriter, r *http.Request) {
	var req bulkMarkRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	items := make([]usecase.BulkMarkItem, 0, len(req.Records))
	for _, rec := range req.Records {
		items = append(items, usecase.BulkMarkItem{UserID: rec.UserID, Status: rec.Status, Notes: rec.Notes})
	}
	res, err := s.attendanceUC.BulkMark(r.Context(), req.Date, items)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) attendanceRosterHandler(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}
	offset, limit := parsePage(r)
	roster, err := s.attendanceUC.Roster(r.Context(), date, offset, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, roster)
}

func (s *Server) attendanceStatsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if v := q.Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if v := q.Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "to must be YYYY-MM-DD"})
			return
		}
		to = parsed
	}
	st, err := s.attendanceUC.Stats(r.Context(), from, to, q.Get("user_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) userAttendanceHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to *time.Time
	if v := q.Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "from must be YYYY-MM-DD"})
			return
		}
		from = &parsed
	}
	if v := q.Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "to must be YYYY-MM-DD"})
			return
		}
		to = &parsed
	}
	offset, limit := parsePage(r)
	items, total, err := s.attendanceUC.ListByUser(r.Context(), chi.URLParam(r, "id"), from, to, offset, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Data: items, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) attendanceDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.attendanceUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
