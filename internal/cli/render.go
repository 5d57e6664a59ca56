package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/projector"
)

const (
	dateLayout      = "2 Jan 2006"
	activityPreview = 100
)

// dutchRelTime mirrors the dashboard feed: "zojuist", "5m geleden", "3u geleden".
var dutchRelTime = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "zojuist", DivBy: time.Second},
	{D: time.Hour, Format: "%dm %s", DivBy: time.Minute},
	{D: 24 * time.Hour, Format: "%du %s", DivBy: time.Hour},
	{D: 7 * 24 * time.Hour, Format: "%dd %s", DivBy: 24 * time.Hour},
	{D: math.MaxInt64, Format: "%dw %s", DivBy: 7 * 24 * time.Hour},
}

func relativeTime(then, now time.Time) string {
	return humanize.CustomRelTime(then, now, "geleden", "vanaf nu", dutchRelTime)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format(dateLayout)
}

func dateRange(it domain.RoadmapItem) string {
	switch {
	case it.StartDate == nil && it.EndDate == nil:
		return "—"
	case it.EndDate == nil:
		return formatDate(it.StartDate)
	default:
		return formatDate(it.StartDate) + " – " + formatDate(it.EndDate)
	}
}

func renderView(t theme, v projector.View) string {
	switch v.Mode {
	case projector.ModeList:
		return renderList(t, v.Items)
	case projector.ModeKanban:
		return renderKanban(t, v.Columns)
	default:
		return renderTimeline(t, v.Buckets)
	}
}

func renderList(t theme, items []domain.RoadmapItem) string {
	if len(items) == 0 {
		return t.dim("Nog geen items.") + "\n"
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Title,
			t.status(it.Status),
			dateRange(it),
			it.CreatedBy.Name,
			strings.Join(it.Tags, ", "),
		})
	}
	return t.table([]string{"Titel", "Status", "Periode", "Eigenaar", "Tags"}, rows)
}

func renderTimeline(t theme, buckets []projector.Bucket) string {
	if len(buckets) == 0 {
		return t.dim("Nog geen items.") + "\n"
	}
	var b strings.Builder
	for i, bucket := range buckets {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.header(bucket.Key))
		b.WriteString("\n")
		for _, it := range bucket.Items {
			fmt.Fprintf(&b, "  %s  %s  %s\n", t.status(it.Status), t.bold(it.Title), t.dim(dateRange(it)))
		}
	}
	return b.String()
}

func renderKanban(t theme, columns []projector.Column) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", t.status(col.Status), t.dim(fmt.Sprintf("(%d)", len(col.Items))))
		if len(col.Items) == 0 {
			b.WriteString("  " + t.dim("leeg") + "\n")
			continue
		}
		for _, it := range col.Items {
			line := "  • " + it.Title
			if tag := it.FirstTag(); tag != "" {
				line += " " + t.dim("#"+tag)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func renderSummary(t theme, s projector.Summary, upcoming []domain.RoadmapItem) string {
	var b strings.Builder
	b.WriteString(t.header("Voortgang"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s van %s items klaar (%d%%)\n",
		humanize.Comma(int64(doneCount(s))), humanize.Comma(int64(s.Total)), s.PercentDone)
	for _, c := range s.Counts {
		fmt.Fprintf(&b, "  %s  %d\n", t.status(c.Status), c.Count)
	}

	b.WriteString("\n")
	b.WriteString(t.header("Binnenkort"))
	b.WriteString("\n")
	if len(upcoming) == 0 {
		b.WriteString(t.dim("Niets gepland.") + "\n")
	}
	for _, it := range upcoming {
		fmt.Fprintf(&b, "  %s  %s\n", t.dim(formatDate(it.StartDate)), it.Title)
	}
	return b.String()
}

func doneCount(s projector.Summary) int {
	for _, c := range s.Counts {
		if c.Status == domain.StatusDone {
			return c.Count
		}
	}
	return 0
}

var eventEmoji = map[domain.EventType]string{
	domain.EventItemCreated:   "🆕",
	domain.EventItemUpdated:   "📝",
	domain.EventStatusChanged: "🔄",
	domain.EventCommentAdded:  "💬",
	domain.EventItemDeleted:   "🗑️",
}

func eventLabel(ev domain.Event) string {
	switch ev.Type {
	case domain.EventItemCreated:
		return fmt.Sprintf("%q aangemaakt", orDefault(ev.PayloadString("title"), "item"))
	case domain.EventItemUpdated:
		return "Een item bijgewerkt"
	case domain.EventStatusChanged:
		status := ev.PayloadString("status")
		if st, ok := domain.ParseStatus(status); ok {
			status = st.Label()
		}
		return "Status gewijzigd → " + orDefault(status, "onbekend")
	case domain.EventCommentAdded:
		return truncate(orDefault(ev.PayloadString("message"), "Reactie geplaatst"), activityPreview)
	case domain.EventItemDeleted:
		return fmt.Sprintf("%q verwijderd", orDefault(ev.PayloadString("title"), "item"))
	default:
		return strings.ReplaceAll(string(ev.Type), "_", " ")
	}
}

func renderActivity(t theme, events []domain.Event, now time.Time) string {
	if len(events) == 0 {
		return t.dim("Nog geen activiteit.") + "\n"
	}
	var b strings.Builder
	for _, ev := range events {
		emoji, ok := eventEmoji[ev.Type]
		if !ok {
			emoji = "📌"
		}
		fmt.Fprintf(&b, "%s %s %s  %s\n",
			emoji, t.bold(ev.Actor.Name), t.dim(relativeTime(ev.CreatedAt, now)), eventLabel(ev))
	}
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
