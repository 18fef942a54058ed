package httpapi

import (
	"net/http"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/service/roster"
)

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.rosterSvc.ListGroups(r.Context(), moduleFrom(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	g := dues.Group{
		Module:        moduleFrom(r),
		Name:          req.Name,
		Description:   req.Description,
		MonthlyAmount: req.MonthlyAmount,
	}
	created, err := s.rosterSvc.CreateGroup(r.Context(), g)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toGroupResponse(roster.GroupWithCount{Group: created}))
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	module := moduleFrom(r)
	current, err := s.rosterSvc.GetGroup(r.Context(), module, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	g := current.Group
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	if req.MonthlyAmount != nil {
		g.MonthlyAmount = *req.MonthlyAmount
	}
	updated, err := s.rosterSvc.UpdateGroup(r.Context(), g)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toGroupResponse(roster.GroupWithCount{Group: updated, MemberCount: current.MemberCount}))
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.rosterSvc.DeleteGroup(r.Context(), moduleFrom(r), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroupMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	module := moduleFrom(r)
	if _, err := s.rosterSvc.GetGroup(r.Context(), module, id); err != nil {
		writeDomainErr(w, err)
		return
	}
	q := r.URL.Query()
	f := roster.ListFilter{Status: dues.Status(q.Get("status")), Search: q.Get("search")}
	members, err := s.rosterSvc.ListPayers(r.Context(), module, id, f)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCustomerResponses(members))
}

func (s *Server) addGroupMember(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	p := dues.Payer{
		Module:        moduleFrom(r),
		GroupID:       id,
		Name:          req.Name,
		Phone:         req.Phone,
		Address:       req.Address,
		Area:          req.Area,
		MonthlyAmount: req.MonthlyAmount,
	}
	created, err := s.rosterSvc.CreatePayer(r.Context(), p)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toCustomerResponse(created))
}

func (s *Server) getGroupCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	month, ok := monthQuery(w, r)
	if !ok {
		return
	}
	view, err := s.collectionSvc.Collect(r.Context(), moduleFrom(r), id, month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCollectionResponse(view))
}
