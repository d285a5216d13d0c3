package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Event is a calendar entry. A zero Start clock (AllDay) renders as a DATE value.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Category    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Created     time.Time
}

// ICSExporter renders events as an RFC 5545 calendar.
type ICSExporter struct {
	productID string
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//school-office-api//schedules//KO"
	}
	return &ICSExporter{productID: productID}
}

// ContentType reports the MIME type of rendered output.
func (e *ICSExporter) ContentType() string { return "text/calendar; charset=utf-8" }

// Extension reports the file extension of rendered output.
func (e *ICSExporter) Extension() string { return ".ics" }

// Render serialises events into a VCALENDAR document.
func (e *ICSExporter) Render(events []Event) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)

	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("event %q has no uid", ev.Summary)
		}
		vevent := cal.AddEvent(ev.UID)
		stamp := ev.Created
		if stamp.IsZero() {
			stamp = time.Now()
		}
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Category != "" {
			vevent.AddProperty(ics.ComponentPropertyCategories, ev.Category)
		}
		if ev.AllDay {
			vevent.SetAllDayStartAt(ev.Start)
			vevent.SetAllDayEndAt(ev.Start.AddDate(0, 0, 1))
			continue
		}
		vevent.SetStartAt(ev.Start)
		end := ev.End
		if end.IsZero() || !end.After(ev.Start) {
			end = ev.Start.Add(time.Hour)
		}
		vevent.SetEndAt(end)
	}

	return []byte(cal.Serialize()), nil
}
