package httpapi

import (
	"net/http"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/service/backup"
)

func (s *Server) getBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := s.backupSvc.Export(r.Context(), moduleFrom(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	groups := make([]backupGroup, 0, len(doc.Groups))
	for _, g := range doc.Groups {
		groups = append(groups, toBackupGroup(g))
	}
	toJSON(w, http.StatusOK, backupResponse{
		Version:    doc.Version,
		ExportedAt: doc.ExportedAt,
		Module:     doc.Module,
		Data: backupData{
			Customers: toCustomerResponses(doc.Customers),
			Groups:    groups,
			Payments:  toPaymentResponses(doc.Payments),
		},
	})
}

func (s *Server) postRestore(w http.ResponseWriter, r *http.Request) {
	req, _ := r.Context().Value(ctxKeyRestore).(restoreRequest)
	module := moduleFrom(r)

	doc := backup.Document{Version: req.Version, Module: module}
	if req.Data != nil {
		if req.Data.Customers != nil {
			doc.Customers = make([]dues.Payer, 0, len(req.Data.Customers))
			for _, c := range req.Data.Customers {
				doc.Customers = append(doc.Customers, c.toDomain(module))
			}
		}
		for _, g := range req.Data.Groups {
			doc.Groups = append(doc.Groups, g.toDomain(module))
		}
		for _, p := range req.Data.Payments {
			doc.Payments = append(doc.Payments, p.toDomain(module))
		}
	}
	res, err := s.backupSvc.Restore(r.Context(), module, doc, req.Mode)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, restoreResponse(res))
}
