package httpapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	month, ok := monthQuery(w, r)
	if !ok {
		return
	}
	view, err := s.collectionSvc.Collect(r.Context(), moduleFrom(r), uuid.Nil, month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toCollectionResponse(view))
}

// exportCollectionCSV streams the reconciliation view as CSV for spreadsheet
// use. Amounts are in minor units, matching the JSON API.
func (s *Server) exportCollectionCSV(w http.ResponseWriter, r *http.Request) {
	month, ok := monthQuery(w, r)
	if !ok {
		return
	}
	var groupID uuid.UUID
	if raw := r.URL.Query().Get("group_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid group_id")
			return
		}
		groupID = id
	}
	module := moduleFrom(r)
	view, err := s.collectionSvc.Collect(r.Context(), module, groupID, month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-collection-%s.csv", module, month))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"name", "phone", "area", "stb_number", "due_amount", "paid", "paid_amount", "paid_date", "mode"})
	for _, row := range view.Rows {
		paidDate := ""
		if row.PaidDate != nil {
			paidDate = row.PaidDate.Format("2006-01-02")
		}
		_ = cw.Write([]string{
			row.Name,
			row.Phone,
			row.Area,
			row.STBNumber,
			strconv.FormatInt(row.DueAmount, 10),
			strconv.FormatBool(row.Paid),
			strconv.FormatInt(row.PaidAmount, 10),
			paidDate,
			row.Mode,
		})
	}
	cw.Flush()
}
