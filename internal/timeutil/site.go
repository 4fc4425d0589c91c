package timeutil

import (
	"log"
	"sync"
	"time"
)

// DefaultZone is the timezone of the construction sites
const DefaultZone = "America/Sao_Paulo"

var (
	mu   sync.RWMutex
	site *time.Location
)

func init() {
	site = loadZone(DefaultZone)
}

func loadZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fallback: fixed zone if tzdata is not available (BRT, UTC-3)
		log.Printf("[Time] Zone %s unavailable, using fixed UTC-3: %v", name, err)
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// SetLocation switches the site timezone. An empty name keeps the default.
func SetLocation(name string) {
	if name == "" {
		return
	}
	loc := loadZone(name)
	mu.Lock()
	site = loc
	mu.Unlock()
}

// Location returns the configured site timezone
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return site
}

// Now returns the current time in the site timezone
func Now() time.Time {
	return time.Now().In(Location())
}

// ParseInSite parses a time string in the site timezone
func ParseInSite(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, Location())
}

// StartOfDay returns 00:00:00 of the calendar day containing t in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999999999 of the calendar day containing t in loc
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 23, 59, 59, 999999999, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfWeek returns the Sunday 00:00 that opens the week containing t
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfMonth returns the first day of the month containing t
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02/01/2006 15:04"
)
