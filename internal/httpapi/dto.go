package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
	"github.com/msivakumar/duetrack/internal/service/backup"
	"github.com/msivakumar/duetrack/internal/service/collection"
	"github.com/msivakumar/duetrack/internal/service/roster"
)

// customerResponse doubles as the backup wire format, so every field is a
// concrete type that round-trips through JSON.
type customerResponse struct {
	ID            uuid.UUID   `json:"id"`
	GroupID       *uuid.UUID  `json:"group_id,omitempty"`
	Name          string      `json:"name"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	Area          string      `json:"area"`
	STBNumber     string      `json:"stb_number"`
	MonthlyAmount int64       `json:"monthly_amount"`
	Status        dues.Status `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	ArchivedAt    *time.Time  `json:"archived_at,omitempty"`
}

func toCustomerResponse(p dues.Payer) customerResponse {
	resp := customerResponse{
		ID:            p.ID,
		Name:          p.Name,
		Phone:         p.Phone,
		Address:       p.Address,
		Area:          p.Area,
		STBNumber:     p.STBNumber,
		MonthlyAmount: p.MonthlyAmount,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		ArchivedAt:    p.ArchivedAt,
	}
	if p.GroupID != uuid.Nil {
		gid := p.GroupID
		resp.GroupID = &gid
	}
	return resp
}

func (c customerResponse) toDomain(module dues.Module) dues.Payer {
	p := dues.Payer{
		ID:            c.ID,
		Module:        module,
		Name:          c.Name,
		Phone:         c.Phone,
		Address:       c.Address,
		Area:          c.Area,
		STBNumber:     c.STBNumber,
		MonthlyAmount: c.MonthlyAmount,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		ArchivedAt:    c.ArchivedAt,
	}
	if c.GroupID != nil {
		p.GroupID = *c.GroupID
	}
	return p
}

func toCustomerResponses(payers []dues.Payer) []customerResponse {
	out := make([]customerResponse, 0, len(payers))
	for _, p := range payers {
		out = append(out, toCustomerResponse(p))
	}
	return out
}

type createCustomerRequest struct {
	GroupID       *uuid.UUID `json:"group_id,omitempty"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	Area          string     `json:"area"`
	STBNumber     string     `json:"stb_number"`
	MonthlyAmount int64      `json:"monthly_amount"`
}

// updateCustomerRequest is a partial update; nil fields keep current values.
type updateCustomerRequest struct {
	Name          *string `json:"name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	Area          *string `json:"area,omitempty"`
	STBNumber     *string `json:"stb_number,omitempty"`
	MonthlyAmount *int64  `json:"monthly_amount,omitempty"`
}

type groupResponse struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	MonthlyAmount int64       `json:"monthly_amount"`
	MemberCount   int         `json:"member_count"`
	Status        dues.Status `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toGroupResponse(g roster.GroupWithCount) groupResponse {
	return groupResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		MonthlyAmount: g.MonthlyAmount,
		MemberCount:   g.MemberCount,
		Status:        g.Status,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

// backupGroup is the group wire format inside backup documents.
type backupGroup struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	MonthlyAmount int64       `json:"monthly_amount"`
	Status        dues.Status `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toBackupGroup(g dues.Group) backupGroup {
	return backupGroup{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		MonthlyAmount: g.MonthlyAmount,
		Status:        g.Status,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func (b backupGroup) toDomain(module dues.Module) dues.Group {
	return dues.Group{
		ID:            b.ID,
		Module:        module,
		Name:          b.Name,
		Description:   b.Description,
		MonthlyAmount: b.MonthlyAmount,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

type createGroupRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	MonthlyAmount int64  `json:"monthly_amount"`
}

type updateGroupRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	MonthlyAmount *int64  `json:"monthly_amount,omitempty"`
}

type paymentResponse struct {
	ID             uuid.UUID  `json:"id"`
	PayerID        uuid.UUID  `json:"payer_id"`
	GroupID        *uuid.UUID `json:"group_id,omitempty"`
	Month          dues.Month `json:"month"`
	Amount         int64      `json:"amount"`
	Mode           string     `json:"mode"`
	PaidDate       time.Time  `json:"paid_date"`
	WhatsAppSent   bool       `json:"whatsapp_sent"`
	WhatsAppSentAt *time.Time `json:"whatsapp_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toPaymentResponse(p dues.Payment) paymentResponse {
	resp := paymentResponse{
		ID:             p.ID,
		PayerID:        p.PayerID,
		Month:          p.Month,
		Amount:         p.Amount,
		Mode:           p.Mode,
		PaidDate:       p.PaidDate,
		WhatsAppSent:   p.WhatsAppSent,
		WhatsAppSentAt: p.WhatsAppSentAt,
		CreatedAt:      p.CreatedAt,
	}
	if p.GroupID != uuid.Nil {
		gid := p.GroupID
		resp.GroupID = &gid
	}
	return resp
}

func (p paymentResponse) toDomain(module dues.Module) dues.Payment {
	out := dues.Payment{
		ID:             p.ID,
		Module:         module,
		PayerID:        p.PayerID,
		Month:          p.Month,
		Amount:         p.Amount,
		Mode:           p.Mode,
		PaidDate:       p.PaidDate,
		WhatsAppSent:   p.WhatsAppSent,
		WhatsAppSentAt: p.WhatsAppSentAt,
		CreatedAt:      p.CreatedAt,
	}
	if p.GroupID != nil {
		out.GroupID = *p.GroupID
	}
	return out
}

func toPaymentResponses(payments []dues.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

type recordPaymentRequest struct {
	PayerID uuid.UUID  `json:"payer_id"`
	Month   dues.Month `json:"month"`
	Amount  *int64     `json:"amount,omitempty"`
	Mode    string     `json:"mode,omitempty"`
}

type collectionRowResponse struct {
	PayerID      uuid.UUID  `json:"payer_id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	Area         string     `json:"area"`
	STBNumber    string     `json:"stb_number"`
	DueAmount    int64      `json:"due_amount"`
	Paid         bool       `json:"paid"`
	PaymentID    *uuid.UUID `json:"payment_id,omitempty"`
	PaidAmount   int64      `json:"paid_amount"`
	PaidDate     *time.Time `json:"paid_date,omitempty"`
	Mode         string     `json:"mode,omitempty"`
	WhatsAppSent bool       `json:"whatsapp_sent"`
}

type collectionSummaryResponse struct {
	Total     int   `json:"total"`
	Paid      int   `json:"paid"`
	Unpaid    int   `json:"unpaid"`
	Collected int64 `json:"collected"`
	Pending   int64 `json:"pending"`
}

type collectionResponse struct {
	Month   dues.Month                `json:"month"`
	Group   *backupGroup              `json:"group,omitempty"`
	Rows    []collectionRowResponse   `json:"rows"`
	Summary collectionSummaryResponse `json:"summary"`
}

func toCollectionResponse(v collection.View) collectionResponse {
	rows := make([]collectionRowResponse, 0, len(v.Rows))
	for _, row := range v.Rows {
		out := collectionRowResponse{
			PayerID:      row.PayerID,
			Name:         row.Name,
			Phone:        row.Phone,
			Address:      row.Address,
			Area:         row.Area,
			STBNumber:    row.STBNumber,
			DueAmount:    row.DueAmount,
			Paid:         row.Paid,
			PaidAmount:   row.PaidAmount,
			PaidDate:     row.PaidDate,
			Mode:         row.Mode,
			WhatsAppSent: row.WhatsAppSent,
		}
		if row.PaymentID != uuid.Nil {
			pid := row.PaymentID
			out.PaymentID = &pid
		}
		rows = append(rows, out)
	}
	resp := collectionResponse{
		Month: v.Month,
		Rows:  rows,
		Summary: collectionSummaryResponse{
			Total:     v.Summary.Total,
			Paid:      v.Summary.Paid,
			Unpaid:    v.Summary.Unpaid,
			Collected: v.Summary.Collected,
			Pending:   v.Summary.Pending,
		},
	}
	if v.Group != nil {
		g := toBackupGroup(*v.Group)
		resp.Group = &g
	}
	return resp
}

type statsResponse struct {
	Module          dues.Module `json:"module"`
	CurrentMonth    dues.Month  `json:"current_month"`
	TotalPayers     int         `json:"total_payers"`
	Active          int         `json:"active"`
	Inactive        int         `json:"inactive"`
	TotalGroups     int         `json:"total_groups,omitempty"`
	PaidThisMonth   int         `json:"paid_this_month"`
	Collected       int64       `json:"collected"`
	Pending         int64       `json:"pending"`
	TotalMonthlyDue int64       `json:"total_monthly_due"`
}

type monthlyReportResponse struct {
	Month       dues.Month         `json:"month"`
	Collected   int64              `json:"collected"`
	Pending     int64              `json:"pending"`
	TotalPayers int                `json:"total_payers"`
	PaidCount   int                `json:"paid_count"`
	UnpaidCount int                `json:"unpaid_count"`
	Payments    []paymentResponse  `json:"payments"`
	Unpaid      []customerResponse `json:"unpaid"`
}

type trendPointResponse struct {
	Month     dues.Month `json:"month"`
	Collected int64      `json:"collected"`
	Pending   int64      `json:"pending"`
}

type backupData struct {
	Customers []customerResponse `json:"customers"`
	Groups    []backupGroup      `json:"groups,omitempty"`
	Payments  []paymentResponse  `json:"payments"`
}

type backupResponse struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Module     dues.Module `json:"module"`
	Data       backupData  `json:"data"`
}

type restoreRequest struct {
	Mode    backup.Mode `json:"mode"`
	Version string      `json:"version,omitempty"`
	Data    *backupData `json:"data"`
}

type restoreResponse struct {
	Customers int `json:"customers"`
	Groups    int `json:"groups"`
	Payments  int `json:"payments"`
}

type staffResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toStaffResponses(staff []dues.StaffMember) []staffResponse {
	out := make([]staffResponse, 0, len(staff))
	for _, m := range staff {
		out = append(out, staffResponse(m))
	}
	return out
}

type settingsResponse struct {
	Module          dues.Module     `json:"module"`
	ReminderDay     int             `json:"reminder_day"`
	ReminderEnabled bool            `json:"reminder_enabled"`
	BusinessName    string          `json:"business_name"`
	BusinessPhone   string          `json:"business_phone"`
	CountryCode     string          `json:"country_code"`
	Staff           []staffResponse `json:"staff"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toSettingsResponse(st dues.Settings) settingsResponse {
	return settingsResponse{
		Module:          st.Module,
		ReminderDay:     st.ReminderDay,
		ReminderEnabled: st.ReminderEnabled,
		BusinessName:    st.BusinessName,
		BusinessPhone:   st.BusinessPhone,
		CountryCode:     st.CountryCode,
		Staff:           toStaffResponses(st.Staff),
		UpdatedAt:       st.UpdatedAt,
	}
}

type updateSettingsRequest struct {
	ReminderDay     int    `json:"reminder_day"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	BusinessName    string `json:"business_name"`
	BusinessPhone   string `json:"business_phone"`
	CountryCode     string `json:"country_code,omitempty"`
}

type addStaffRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role,omitempty"`
}

type receiptResponse struct {
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsapp_url"`
}
