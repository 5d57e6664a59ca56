package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fastygo/roadmap/domain"
)

// ErrMalformedChange is returned for messages that cannot be attributed to an item.
var ErrMalformedChange = errors.New("malformed change event")

type wireMessage struct {
	EventType string                     `json:"eventType"`
	New       map[string]json.RawMessage `json:"new,omitempty"`
	Old       map[string]json.RawMessage `json:"old,omitempty"`
	ActorID   string                     `json:"actor_id,omitempty"`
}

type wireProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Surname   string `json:"surname,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Decode maps a wire message onto a Change. Unknown columns are ignored and
// columns with values of the wrong shape are dropped; only a missing id or an
// unknown event type makes the message malformed.
func Decode(data []byte) (Change, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Change{}, fmt.Errorf("%w: %v", ErrMalformedChange, err)
	}

	change := Change{
		Type:    ChangeType(strings.ToUpper(msg.EventType)),
		ActorID: msg.ActorID,
	}
	if !change.Type.Valid() {
		return Change{}, fmt.Errorf("%w: event type %q", ErrMalformedChange, msg.EventType)
	}

	src := msg.New
	if change.Type == Delete {
		src = msg.Old
	}
	change.ID = rawString(src["id"])
	if change.ID == "" && change.Type == Delete {
		change.ID = rawString(msg.New["id"])
	}
	if change.ID == "" {
		return Change{}, fmt.Errorf("%w: missing id", ErrMalformedChange)
	}

	if change.Type != Delete {
		change.Row = decodeRow(msg.New)
	}
	return change, nil
}

func decodeRow(cols map[string]json.RawMessage) ItemRow {
	var row ItemRow
	for col, raw := range cols {
		switch col {
		case ColTitle:
			var v string
			if json.Unmarshal(raw, &v) == nil {
				row.Title = &v
				row.mark(col)
			}
		case ColDescription:
			var v *string
			if json.Unmarshal(raw, &v) == nil {
				s := ""
				if v != nil {
					s = *v
				}
				row.Description = &s
				row.mark(col)
			}
		case ColStartDate, ColEndDate:
			t, ok := decodeNullableTime(raw)
			if !ok {
				continue
			}
			if col == ColStartDate {
				row.StartDate = t
			} else {
				row.EndDate = t
			}
			row.mark(col)
		case ColStatus:
			var v string
			if json.Unmarshal(raw, &v) == nil {
				if st, ok := domain.ParseStatus(v); ok {
					row.Status = &st
					row.mark(col)
				}
			}
		case ColTags:
			var v []string
			if json.Unmarshal(raw, &v) == nil {
				if v == nil {
					v = []string{}
				}
				row.Tags = v
				row.mark(col)
			}
		case ColCreatedBy:
			if v := rawString(raw); v != "" {
				row.CreatedBy = v
				row.mark(col)
			}
		case ColCreator:
			var p wireProfile
			if json.Unmarshal(raw, &p) == nil && p.ID != "" {
				row.Creator = &domain.Profile{ID: p.ID, Name: p.Name, Surname: p.Surname, AvatarURL: p.AvatarURL}
				row.mark(col)
			}
		case ColCreatedAt, ColUpdatedAt:
			t, ok := decodeNullableTime(raw)
			if !ok || t == nil {
				continue
			}
			if col == ColCreatedAt {
				row.CreatedAt = t
			} else {
				row.UpdatedAt = t
			}
			row.mark(col)
		}
	}
	return row
}

// Encode renders a change in the wire format consumed by Decode.
func Encode(change Change) ([]byte, error) {
	if change.ID == "" || !change.Type.Valid() {
		return nil, ErrMalformedChange
	}
	msg := wireMessage{EventType: string(change.Type), ActorID: change.ActorID}
	if change.Type == Delete {
		msg.Old = map[string]json.RawMessage{"id": mustJSON(change.ID)}
		return json.Marshal(msg)
	}

	r := change.Row
	cols := map[string]json.RawMessage{"id": mustJSON(change.ID)}
	if r.Has(ColTitle) && r.Title != nil {
		cols[ColTitle] = mustJSON(*r.Title)
	}
	if r.Has(ColDescription) && r.Description != nil {
		cols[ColDescription] = mustJSON(*r.Description)
	}
	if r.Has(ColStartDate) {
		cols[ColStartDate] = encodeNullableTime(r.StartDate)
	}
	if r.Has(ColEndDate) {
		cols[ColEndDate] = encodeNullableTime(r.EndDate)
	}
	if r.Has(ColStatus) && r.Status != nil {
		cols[ColStatus] = mustJSON(string(*r.Status))
	}
	if r.Has(ColTags) {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		cols[ColTags] = mustJSON(tags)
	}
	if r.Has(ColCreatedBy) {
		cols[ColCreatedBy] = mustJSON(r.CreatedBy)
	}
	if r.Has(ColCreator) && r.Creator != nil {
		cols[ColCreator] = mustJSON(wireProfile{
			ID:        r.Creator.ID,
			Name:      r.Creator.Name,
			Surname:   r.Creator.Surname,
			AvatarURL: r.Creator.AvatarURL,
		})
	}
	if r.Has(ColCreatedAt) && r.CreatedAt != nil {
		cols[ColCreatedAt] = encodeNullableTime(r.CreatedAt)
	}
	if r.Has(ColUpdatedAt) && r.UpdatedAt != nil {
		cols[ColUpdatedAt] = encodeNullableTime(r.UpdatedAt)
	}
	msg.New = cols
	return json.Marshal(msg)
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func decodeNullableTime(raw json.RawMessage) (*time.Time, bool) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	if s == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

func encodeNullableTime(t *time.Time) json.RawMessage {
	if t == nil {
		return json.RawMessage("null")
	}
	return mustJSON(t.UTC().Format(time.RFC3339Nano))
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
