package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/willcldrr/scalexotics-sub002/internal/fleet"
	"github.com/willcldrr/scalexotics-sub002/internal/leads"
)

// SlotExtractor pulls booking slots out of message text with deterministic
// rules. Parsed dates are facts from the text, never guessed by the model.
type SlotExtractor struct {
	now func() time.Time
}

// NewSlotExtractor returns an extractor anchored to the wall clock.
func NewSlotExtractor() *SlotExtractor {
	return &SlotExtractor{now: time.Now}
}

// Extract scans the inbound message and the assistant reply for slot
// mentions. Inbound text wins per field when both mention the same slot.
func (e *SlotExtractor) Extract(inbound, reply string, vehicles []fleet.Vehicle) leads.SlotUpdate {
	update := e.extractFrom(inbound, vehicles)
	replyUpdate := e.extractFrom(reply, vehicles)

	if update.VehicleID == nil {
		update.VehicleID = replyUpdate.VehicleID
	}
	if update.StartDate == nil && update.EndDate == nil {
		update.StartDate = replyUpdate.StartDate
		update.EndDate = replyUpdate.EndDate
	}
	return update
}

func (e *SlotExtractor) extractFrom(text string, vehicles []fleet.Vehicle) leads.SlotUpdate {
	var update leads.SlotUpdate

	if v := matchVehicle(text, vehicles); v != nil {
		id := v.ID
		update.VehicleID = &id
	}

	dates := e.extractDates(text)
	if len(dates) >= 1 {
		start := dates[0]
		update.StartDate = &start
	}
	if len(dates) >= 2 {
		end := dates[1]
		update.EndDate = &end
	}
	return update
}

// matchVehicle finds the first catalog vehicle mentioned in the text. Each
// vehicle is checked in catalog order against its make, model, and
// "make model", case-insensitive; the first vehicle with any hit wins.
func matchVehicle(text string, vehicles []fleet.Vehicle) *fleet.Vehicle {
	lower := strings.ToLower(text)
	for i := range vehicles {
		v := &vehicles[i]
		for _, needle := range []string{
			strings.ToLower(v.Make),
			strings.ToLower(v.Model),
			strings.ToLower(v.Make + " " + v.Model),
		} {
			if needle != "" && needle != " " && strings.Contains(lower, needle) {
				return v
			}
		}
	}
	return nil
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	// "March 15", "Mar 15th", with optional "-17", "to March 17",
	// "through the 17th" range tails.
	monthNameRe = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?(?:\s*(?:-|–|to|through|thru|until)\s*(?:the\s+)?(?:(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+)?(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?)?`)

	// "3/15", "03/15/2026", "3/15/26", with optional "-3/17" style tails.
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)

	// "2026-03-15"
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// extractDates returns up to two dates in mention order. Month-name ranges
// ("March 15 to 17") are expanded to both endpoints.
func (e *SlotExtractor) extractDates(text string) []time.Time {
	now := e.now().UTC()
	var out []time.Time

	add := func(t time.Time, ok bool) {
		if !ok || len(out) >= 2 {
			return
		}
		for _, existing := range out {
			if existing.Equal(t) {
				return
			}
		}
		out = append(out, t)
	}

	for _, m := range monthNameRe.FindAllStringSubmatch(text, -1) {
		month, ok := monthsByPrefix[strings.ToLower(m[1])[:3]]
		if !ok {
			continue
		}
		add(e.resolveDate(now, month, m[2], m[3]))
		if m[5] != "" {
			endMonth := month
			if m[4] != "" {
				if em, ok := monthsByPrefix[strings.ToLower(m[4])[:3]]; ok {
					endMonth = em
				}
			}
			add(e.resolveDate(now, endMonth, m[5], m[6]))
		}
		if len(out) >= 2 {
			return out
		}
	}

	for _, m := range isoDateRe.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && validDay(year, time.Month(month), day) {
			add(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true)
		}
		if len(out) >= 2 {
			return out
		}
	}

	for _, m := range slashDateRe.FindAllStringSubmatch(text, -1) {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			continue
		}
		if m[3] != "" {
			year, _ := strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
			if validDay(year, time.Month(month), day) {
				add(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true)
			}
		} else {
			add(e.resolveDate(now, time.Month(month), m[2], ""))
		}
		if len(out) >= 2 {
			return out
		}
	}

	return out
}

// resolveDate builds a date from month/day strings, inferring the year when
// absent: the current year, rolled forward when the date has already passed.
func (e *SlotExtractor) resolveDate(now time.Time, month time.Month, dayStr, yearStr string) (time.Time, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}

	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || !validDay(year, month, day) {
			return time.Time{}, false
		}
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}

	year := now.Year()
	if !validDay(year, month, day) {
		return time.Time{}, false
	}
	candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if candidate.Before(today) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return candidate, true
}

func validDay(year int, month time.Month, day int) bool {
	if day < 1 {
		return false
	}
	lastOfMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return day <= lastOfMonth.Day()
}
