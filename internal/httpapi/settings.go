package httpapi

import (
	"net/http"

	"github.com/msivakumar/duetrack/internal/dues"
)

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settingsSvc.Get(r.Context(), moduleFrom(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSettingsResponse(st))
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	st := dues.Settings{
		Module:          moduleFrom(r),
		ReminderDay:     req.ReminderDay,
		ReminderEnabled: req.ReminderEnabled,
		BusinessName:    req.BusinessName,
		BusinessPhone:   req.BusinessPhone,
		CountryCode:     req.CountryCode,
	}
	updated, err := s.settingsSvc.Update(r.Context(), st)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSettingsResponse(updated))
}

func (s *Server) addStaff(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req addStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	m := dues.StaffMember{Name: req.Name, Phone: req.Phone, Role: req.Role}
	created, err := s.settingsSvc.AddStaff(r.Context(), moduleFrom(r), m)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, staffResponse(created))
}

func (s *Server) removeStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.settingsSvc.RemoveStaff(r.Context(), moduleFrom(r), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
