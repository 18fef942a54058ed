package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/service/roster"
)

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := roster.ListFilter{
		Status: dues.Status(q.Get("status")),
		Search: q.Get("search"),
	}
	payers, err := s.rosterSvc.ListPayers(r.Context(), moduleFrom(r), uuid.Nil, f)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponses(payers))
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	p := dues.Payer{
		Module:        moduleFrom(r),
		Name:          req.Name,
		Phone:         req.Phone,
		Address:       req.Address,
		Area:          req.Area,
		STBNumber:     req.STBNumber,
		MonthlyAmount: req.MonthlyAmount,
	}
	if req.GroupID != nil {
		p.GroupID = *req.GroupID
	}
	created, err := s.rosterSvc.CreatePayer(r.Context(), p)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toCustomerResponse(created))
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := s.rosterSvc.GetPayer(r.Context(), moduleFrom(r), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponse(p))
}

// updateCustomer applies a partial body over the stored payer. Identity and
// group membership are not editable through this endpoint.
func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req updateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	module := moduleFrom(r)
	p, err := s.rosterSvc.GetPayer(r.Context(), module, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Area != nil {
		p.Area = *req.Area
	}
	if req.STBNumber != nil {
		p.STBNumber = *req.STBNumber
	}
	if req.MonthlyAmount != nil {
		p.MonthlyAmount = *req.MonthlyAmount
	}
	updated, err := s.rosterSvc.UpdatePayer(r.Context(), p)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponse(updated))
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.rosterSvc.DeletePayer(r.Context(), moduleFrom(r), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) archiveCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := s.rosterSvc.Archive(r.Context(), moduleFrom(r), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponse(p))
}

func (s *Server) reactivateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := s.rosterSvc.Reactivate(r.Context(), moduleFrom(r), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponse(p))
}

func (s *Server) getCustomerPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	module := moduleFrom(r)
	if _, err := s.rosterSvc.GetPayer(r.Context(), module, id); err != nil {
		writeDomainErr(w, err)
		return
	}
	payments, err := s.collectionSvc.PaymentHistory(r.Context(), module, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toPaymentResponses(payments))
}
