package transport

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/fastygo/roadmap/domain"
)

// dateLayouts are accepted for item dates; plain dates are read as UTC midnight.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// OptionalString distinguishes an absent field from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// ItemRequest is the create payload for POST /api/v1/items.
type ItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

// Input converts the request, reporting unparsable dates as field errors.
func (r ItemRequest) Input() (domain.ItemInput, error) {
	fields := map[string][]string{}
	in := domain.ItemInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.Status(strings.ToLower(strings.TrimSpace(r.Status))),
		Tags:        r.Tags,
	}
	in.StartDate = parseDateField(fields, "start_date", r.StartDate)
	in.EndDate = parseDateField(fields, "end_date", r.EndDate)
	if len(fields) > 0 {
		return in, domain.NewValidationError(fields)
	}
	return in, nil
}

// ItemPatchRequest is the partial update for PATCH /api/v1/items/{id}. Dates
// set to null are cleared.
type ItemPatchRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	StartDate   OptionalString `json:"start_date"`
	EndDate     OptionalString `json:"end_date"`
	Status      *string        `json:"status"`
	Tags        *[]string      `json:"tags"`
}

func (r ItemPatchRequest) Patch() (domain.ItemPatch, error) {
	fields := map[string][]string{}
	p := domain.ItemPatch{Title: r.Title, Description: r.Description}
	if r.Status != nil {
		st := domain.Status(strings.ToLower(strings.TrimSpace(*r.Status)))
		p.Status = &st
	}
	if r.Tags != nil {
		p.Tags = *r.Tags
		p.SetTags = true
	}
	p.StartDate, p.ClearStart = parseOptionalDate(fields, "start_date", r.StartDate)
	p.EndDate, p.ClearEnd = parseOptionalDate(fields, "end_date", r.EndDate)
	if len(fields) > 0 {
		return p, domain.NewValidationError(fields)
	}
	return p, nil
}

type StatusRequest struct {
	Status string `json:"status"`
}

type CommentRequest struct {
	Message string `json:"message"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

// InviteCheck is the public answer to an invite token lookup.
type InviteCheck struct {
	Email string `json:"email,omitempty"`
	Valid bool   `json:"valid"`
}

func parseOptionalDate(fields map[string][]string, key string, o OptionalString) (*time.Time, bool) {
	if !o.Set {
		return nil, false
	}
	if o.Value == nil || strings.TrimSpace(*o.Value) == "" {
		return nil, true
	}
	return parseDateField(fields, key, *o.Value), false
}

func parseDateField(fields map[string][]string, key, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	fields[key] = append(fields[key], "invalid date")
	return nil
}
