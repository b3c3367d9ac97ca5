package api

import (
	"time"

	"github.com/emilianohg/touchbase/internal/legacy"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/status"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// CompanyResponse is the stored document plus its next due date.
type CompanyResponse struct {
	legacy.Company
	NextDue       string       `json:"nextDue,omitempty"`
	NextDueStatus status.Label `json:"nextDueStatus,omitempty"`
}

// BulkCommunicationRequest logs one communication for several companies.
type BulkCommunicationRequest struct {
	CompanyIDs []int64 `json:"companyIds"`
	legacy.Communication
}

type ScheduleResponse struct {
	CompanyID     int64                  `json:"companyId"`
	CompanyName   string                 `json:"companyName"`
	Rule          string                 `json:"rule"`
	NextDue       string                 `json:"nextDue,omitempty"`
	NextDueStatus status.Label           `json:"nextDueStatus,omitempty"`
	Recent        []legacy.Communication `json:"recent"`
	Upcoming      []string               `json:"upcoming"`
}

type NotificationItem struct {
	CompanyID     int64                `json:"companyId"`
	CompanyName   string               `json:"companyName"`
	Communication legacy.Communication `json:"communication"`
}

type NotificationsResponse struct {
	Date     string             `json:"date"`
	Overdue  []NotificationItem `json:"overdue"`
	DueToday []NotificationItem `json:"dueToday"`
}

type EventResponse struct {
	CompanyID   int64              `json:"companyId"`
	CompanyName string             `json:"companyName"`
	Date        string             `json:"date"`
	Kind        schedule.EventKind `json:"kind"`
	Type        string             `json:"type,omitempty"`
	RecordID    string             `json:"recordId,omitempty"`
	Status      status.Label       `json:"status"`
}

type MethodPayload struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Sequence    int    `json:"sequence"`
	Mandatory   bool   `json:"mandatory"`
}

func formatDate(t time.Time) string {
	return t.Format(recurrence.DateLayout)
}

func toScheduleResponse(o schedule.Overview) ScheduleResponse {
	resp := ScheduleResponse{
		CompanyID:     o.CompanyID,
		CompanyName:   o.CompanyName,
		Rule:          o.Rule,
		NextDueStatus: o.NextDueStatus,
		Recent:        make([]legacy.Communication, 0, len(o.Recent)),
		Upcoming:      make([]string, 0, len(o.Upcoming)),
	}
	if o.NextDue != nil {
		resp.NextDue = formatDate(*o.NextDue)
	}
	for _, r := range o.Recent {
		resp.Recent = append(resp.Recent, legacy.FromRecord(r))
	}
	for _, d := range o.Upcoming {
		resp.Upcoming = append(resp.Upcoming, formatDate(d))
	}
	return resp
}

func toNotificationItems(ns []status.Notification) []NotificationItem {
	out := make([]NotificationItem, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationItem{
			CompanyID:     n.CompanyID,
			CompanyName:   n.CompanyName,
			Communication: legacy.FromRecord(n.Record),
		})
	}
	return out
}

func toEventResponses(events []schedule.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			CompanyID:   e.CompanyID,
			CompanyName: e.CompanyName,
			Date:        formatDate(e.Date),
			Kind:        e.Kind,
			Type:        e.Type,
			RecordID:    e.RecordID,
			Status:      e.Status,
		})
	}
	return out
}

func toMethodPayload(m models.CommunicationMethod) MethodPayload {
	return MethodPayload{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Sequence:    m.Sequence,
		Mandatory:   m.Mandatory,
	}
}

func (p MethodPayload) toModel() models.CommunicationMethod {
	return models.CommunicationMethod{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Sequence:    p.Sequence,
		Mandatory:   p.Mandatory,
	}
}
