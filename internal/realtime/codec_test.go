package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/roadmap/domain"
)

func TestDecode_PartialUpdate(t *testing.T) {
	msg := `{"eventType":"UPDATE","new":{"id":"r1","status":"active","updated_at":"2026-03-10T09:00:00Z"},"actor_id":"u2"}`

	ch, err := Decode([]byte(msg))
	require.NoError(t, err)

	assert.Equal(t, Update, ch.Type)
	assert.Equal(t, "r1", ch.ID)
	assert.Equal(t, "u2", ch.ActorID)
	assert.True(t, ch.Row.Has(ColStatus))
	assert.False(t, ch.Row.Has(ColTitle))
	require.NotNil(t, ch.Row.Status)
	assert.Equal(t, domain.StatusActive, *ch.Row.Status)
}

func TestDecode_NullDateClearsColumn(t *testing.T) {
	ch, err := Decode([]byte(`{"eventType":"UPDATE","new":{"id":"r1","start_date":null,"end_date":"2026-04-01"}}`))
	require.NoError(t, err)

	assert.True(t, ch.Row.Has(ColStartDate))
	assert.Nil(t, ch.Row.StartDate)
	require.NotNil(t, ch.Row.EndDate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *ch.Row.EndDate)
}

func TestDecode_DropsBadColumns(t *testing.T) {
	ch, err := Decode([]byte(`{"eventType":"insert","new":{"id":"r1","title":"Roof","status":"unknown","tags":"kitchen","extra":1}}`))
	require.NoError(t, err)

	assert.Equal(t, Insert, ch.Type)
	assert.True(t, ch.Row.Has(ColTitle))
	assert.False(t, ch.Row.Has(ColStatus))
	assert.False(t, ch.Row.Has(ColTags))
}

func TestDecode_Delete(t *testing.T) {
	ch, err := Decode([]byte(`{"eventType":"DELETE","old":{"id":"r5"},"actor_id":"u2"}`))
	require.NoError(t, err)

	assert.Equal(t, Delete, ch.Type)
	assert.Equal(t, "r5", ch.ID)
	assert.True(t, ch.Row.Empty())
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{`,
		"unknown type": `{"eventType":"TRUNCATE","new":{"id":"r1"}}`,
		"missing id":   `{"eventType":"UPDATE","new":{"title":"x"}}`,
		"delete no id": `{"eventType":"DELETE","old":{}}`,
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(msg))
			assert.ErrorIs(t, err, ErrMalformedChange)
		})
	}
}

func TestEncode_RoundTripsPartialRow(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	row := RowFromItem(domain.RoadmapItem{ID: "r1", Status: domain.StatusDone, UpdatedAt: at}, ColStatus, ColStartDate)

	data, err := Encode(Change{Type: Update, ID: "r1", Row: row, ActorID: "u1"})
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "u1", back.ActorID)
	assert.True(t, back.Row.Has(ColStartDate))
	assert.Nil(t, back.Row.StartDate)
	assert.False(t, back.Row.Has(ColTitle))
	require.NotNil(t, back.Row.UpdatedAt)
	assert.True(t, at.Equal(*back.Row.UpdatedAt))
}

func TestEncode_RejectsMissingID(t *testing.T) {
	_, err := Encode(Change{Type: Insert})
	assert.ErrorIs(t, err, ErrMalformedChange)
}

func TestToItem_Defaults(t *testing.T) {
	ch, err := Decode([]byte(`{"eventType":"INSERT","new":{"id":"r9","title":"Garden","created_by":"u3","created_at":"2026-03-01T10:00:00Z"}}`))
	require.NoError(t, err)

	it := ch.Row.ToItem(ch.ID)
	assert.Equal(t, domain.StatusPlanned, it.Status)
	assert.Equal(t, []string{}, it.Tags)
	assert.Equal(t, "u3", it.CreatedBy.ID)
	assert.Equal(t, domain.UnknownName, it.CreatedBy.Name)
	assert.Equal(t, it.CreatedAt, it.UpdatedAt)
}
