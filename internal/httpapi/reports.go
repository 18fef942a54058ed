package httpapi

import (
	"net/http"

	"github.com/msivakumar/duetrack/internal/dues"
)

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.collectionSvc.Stats(r.Context(), moduleFrom(r), dues.CurrentMonth())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, statsResponse{
		Module:          st.Module,
		CurrentMonth:    st.CurrentMonth,
		TotalPayers:     st.TotalPayers,
		Active:          st.Active,
		Inactive:        st.Inactive,
		TotalGroups:     st.TotalGroups,
		PaidThisMonth:   st.PaidThisMonth,
		Collected:       st.Collected,
		Pending:         st.Pending,
		TotalMonthlyDue: st.TotalMonthlyDue,
	})
}

func (s *Server) getMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, ok := monthQuery(w, r)
	if !ok {
		return
	}
	rep, err := s.collectionSvc.MonthlyReport(r.Context(), moduleFrom(r), month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, monthlyReportResponse{
		Month:       rep.Month,
		Collected:   rep.Collected,
		Pending:     rep.Pending,
		TotalPayers: rep.TotalPayers,
		PaidCount:   rep.PaidCount,
		UnpaidCount: rep.UnpaidCount,
		Payments:    toPaymentResponses(rep.Payments),
		Unpaid:      toCustomerResponses(rep.Unpaid),
	})
}

func (s *Server) getTrend(w http.ResponseWriter, r *http.Request) {
	points, err := s.collectionSvc.Trend(r.Context(), moduleFrom(r), dues.CurrentMonth())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]trendPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointResponse(p))
	}
	toJSON(w, http.StatusOK, out)
}
