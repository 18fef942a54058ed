package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/govalues/money"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/service/collection"
)

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	var month *dues.Month
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := dues.ParseMonth(raw)
		if err != nil {
			badRequest(w, "invalid month, expected YYYY-MM")
			return
		}
		month = &m
	}
	payments, err := s.collectionSvc.ListPayments(r.Context(), moduleFrom(r), month)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toPaymentResponses(payments))
}

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request) {
	req, _ := r.Context().Value(ctxKeyRecordPayment).(recordPaymentRequest)
	in := collection.RecordInput{
		PayerID: req.PayerID,
		Month:   req.Month,
		Amount:  req.Amount,
		Mode:    req.Mode,
	}
	p, err := s.collectionSvc.RecordPayment(r.Context(), moduleFrom(r), in)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (s *Server) undoPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.collectionSvc.UndoPayment(r.Context(), moduleFrom(r), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markReceiptSent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := s.collectionSvc.MarkReceiptSent(r.Context(), moduleFrom(r), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toPaymentResponse(p))
}

// getReceipt composes the WhatsApp receipt text for a payment and the wa.me
// link to send it, so every client shares one message format.
func (s *Server) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	module := moduleFrom(r)
	p, err := s.collectionSvc.GetPayment(r.Context(), module, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	payer, err := s.rosterSvc.GetPayer(r.Context(), module, p.PayerID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	st, err := s.settingsSvc.Get(r.Context(), module)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	amt, err := money.NewAmountFromMinorUnits("INR", p.Amount)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	business := st.BusinessName
	if business == "" {
		business = "DueTrack"
	}
	message := fmt.Sprintf(
		"Payment received!\n\n%s\nName: %s\nMonth: %s\nAmount: %s\nMode: %s\nDate: %s\n\nThank you!",
		business, payer.Name, p.Month, amt, p.Mode, p.PaidDate.Format("02 Jan 2006"),
	)

	resp := receiptResponse{Message: message}
	if phone := waPhone(payer.Phone, st.CountryCode); phone != "" {
		u := url.URL{Scheme: "https", Host: "wa.me", Path: "/" + phone}
		u.RawQuery = url.Values{"text": {message}}.Encode()
		resp.WhatsAppURL = u.String()
	}
	toJSON(w, http.StatusOK, resp)
}

// waPhone normalizes a stored phone number into wa.me digits: strip
// formatting, prefix the country code when the number is bare.
func waPhone(phone, countryCode string) string {
	var digits strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	if len(d) <= 10 && !strings.HasPrefix(d, countryCode) {
		d = countryCode + d
	}
	return d
}
