package http

import (
	"bytes"
	"net/http"
	"strconv"

	"rumclub/internal/core"
)

// Every mutation answers with the figures it affects, recomputed after the
// save, so clients never derive totals themselves.

type sampleRequest struct {
	Bottle string      `json:"bottle"`
	Cost   amountInput `json:"cost"`
	Price  amountInput `json:"price"`
}

func (s *Server) handleUpdateSample(w http.ResponseWriter, r *http.Request) {
	var req sampleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cost, err := req.Cost.money(false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	price, err := req.Price.money(false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month := sampleMonth(r)
	if err := s.ledger.UpdateSample(r.Context(), month, sanitizeInput(req.Bottle), cost, price); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeSampleSummary(w, r, month)
}

type orderRequest struct {
	Quantity int  `json:"quantity"`
	Paid     bool `json:"paid"`
}

func (s *Server) handleSetOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month := sampleMonth(r)
	if err := s.ledger.SetOrder(r.Context(), month, memberParam(r), req.Quantity, req.Paid); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeSampleSummary(w, r, month)
}

func (s *Server) writeSampleSummary(w http.ResponseWriter, r *http.Request, month string) {
	sum, err := s.ledger.SampleSummary(month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(toSampleSummary(sum)).Write(w)
}

type paidRequest struct {
	Paid bool `json:"paid"`
}

func (s *Server) handleSetDues(w http.ResponseWriter, r *http.Request) {
	var req paidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.SetDuesPaid(r.Context(), memberParam(r), req.Paid); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAnnualSummary(w, http.StatusOK)
}

type tastingCostRequest struct {
	BottleCost amountInput `json:"bottle_cost"`
}

func (s *Server) handleSetTastingCost(w http.ResponseWriter, r *http.Request) {
	var req tastingCostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cost, err := req.BottleCost.money(false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month := tastingMonth(r)
	if err := s.ledger.SetTastingBottleCost(r.Context(), month, cost); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTastingSummary(w, r, month, http.StatusOK)
}

type participantRequest struct {
	Registered bool `json:"registered"`
	Meal       bool `json:"meal"`
	Paid       bool `json:"paid"`
}

func (s *Server) handleSetParticipant(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month := tastingMonth(r)
	p := core.Participant{Registered: req.Registered, Meal: req.Meal, Paid: req.Paid}
	if err := s.ledger.SetParticipant(r.Context(), month, memberParam(r), p); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTastingSummary(w, r, month, http.StatusOK)
}

type guestRequest struct {
	Name string `json:"name"`
	Meal bool   `json:"meal"`
	Paid bool   `json:"paid"`
}

type guestCreatedResponse struct {
	Index   int                `json:"index"`
	Tasting tastingSummaryJSON `json:"tasting"`
}

func (s *Server) handleAddGuest(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month := tastingMonth(r)
	g := core.Guest{Name: sanitizeInput(req.Name), Meal: req.Meal, Paid: req.Paid}
	index, err := s.ledger.RegisterGuest(r.Context(), month, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.ledger.TastingSummary(month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", r.URL.Path+"/"+strconv.Itoa(index)).
		JSON(guestCreatedResponse{Index: index, Tasting: toTastingSummary(sum)}).
		Write(w)
}

func (s *Server) handleUpdateGuest(w http.ResponseWriter, r *http.Request) {
	index, err := guestIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req guestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month := tastingMonth(r)
	g := core.Guest{Name: sanitizeInput(req.Name), Meal: req.Meal, Paid: req.Paid}
	if err := s.ledger.UpdateGuest(r.Context(), month, index, g); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTastingSummary(w, r, month, http.StatusOK)
}

func (s *Server) handleRemoveGuest(w http.ResponseWriter, r *http.Request) {
	index, err := guestIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month := tastingMonth(r)
	if err := s.ledger.RemoveGuest(r.Context(), month, index); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeTastingSummary(w, r, month, http.StatusOK)
}

func (s *Server) writeTastingSummary(w http.ResponseWriter, r *http.Request, month string, status int) {
	sum, err := s.ledger.TastingSummary(month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(status).JSON(toTastingSummary(sum)).Write(w)
}

// archiveRequest fields are optional; absent fields are left unchanged.
type archiveRequest struct {
	InStock *bool   `json:"in_stock"`
	Notes   *string `json:"notes"`
}

func (s *Server) handleUpdateArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Notes != nil {
		notes := sanitizeInput(*req.Notes)
		req.Notes = &notes
	}
	if err := s.ledger.UpdateArchive(r.Context(), sampleMonth(r), req.InStock, req.Notes); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAnnualSummary(w, http.StatusOK)
}

type balanceRequest struct {
	Amount amountInput `json:"amount"`
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// A club can open the year in debt.
	m, err := req.Amount.money(true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.SetOpeningBalance(r.Context(), m); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAnnualSummary(w, http.StatusOK)
}

type memberRequest struct {
	Surname   string `json:"surname"`
	Firstname string `json:"firstname"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	name, err := s.ledger.AddMember(r.Context(), sanitizeInput(req.Surname), sanitizeInput(req.Firstname))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).JSON(map[string]string{"name": name}).Write(w)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.RemoveMember(r.Context(), memberParam(r)); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

type importResponse struct {
	Rows       int      `json:"rows"`
	Skipped    int      `json:"skipped"`
	Duplicates int      `json:"duplicates"`
	Members    []string `json:"members"`
}

// handleImportMembers takes the roster file itself as the request body.
func (s *Server) handleImportMembers(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.ledger.ImportMembers(r.Context(), bytes.NewReader(data))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(importResponse{
		Rows:       rep.Rows,
		Skipped:    rep.Skipped,
		Duplicates: rep.Duplicates,
		Members:    rep.Members,
	}).Write(w)
}

func (s *Server) handleResetYear(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.ResetYear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAnnualSummary(w, http.StatusOK)
}

func (s *Server) handleRollBalance(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.RollBalanceForward(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAnnualSummary(w, http.StatusOK)
}

func (s *Server) handleStartNewYear(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.StartNewYear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeAnnualSummary(w, http.StatusOK)
}

func (s *Server) writeAnnualSummary(w http.ResponseWriter, status int) {
	out := toAnnualSummary(s.ledger.Summary())
	out.Fallback = s.ledger.LoadReport().Fallback
	NewJSONResponse().Status(status).JSON(out).Write(w)
}
