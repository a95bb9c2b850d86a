package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lucasferr-dev/zapagenda/libs/config"
)

// Deployment defaults match the original service-area offering: six
// air-conditioning/electrical services, hourly slots with a lunch break,
// weekday-only bookings, one fixed WhatsApp business number.
const (
	defaultServices = "Instalação de Ar Condicionado,Manutenção de Ar Condicionado,Limpeza de Ar Condicionado,Reparo de Ar Condicionado,Instalação Elétrica,Manutenção Elétrica"
	defaultSlots    = "08:00,09:00,10:00,11:00,13:00,14:00,15:00,16:00,17:00"
	defaultWeekdays = "1,2,3,4,5"
	defaultPhone    = "5547999999999"
)

// Booking is the full configuration surface of the booking engine.
type Booking struct {
	Services      []string
	TimeSlots     []string
	Weekdays      map[time.Weekday]bool
	BusinessPhone string

	// BlockedSlots maps a YYYY-MM-DD date to extra slot labels unavailable
	// on that date only.
	BlockedSlots map[string][]string

	// RequireAddress turns on the structured-address deployment variant.
	RequireAddress bool
	// FixedCity/FixedState pin the service area; when set the address city
	// and state are not user input.
	FixedCity  string
	FixedState string
}

func FromEnv() (Booking, error) {
	cfg := Booking{
		Services:       config.List("SERVICE_CATALOG", defaultServices),
		TimeSlots:      config.List("TIME_SLOT_CATALOG", defaultSlots),
		BusinessPhone:  strings.TrimSpace(config.String("BUSINESS_PHONE", defaultPhone)),
		RequireAddress: config.Bool("REQUIRE_ADDRESS", false),
		FixedCity:      strings.TrimSpace(config.String("FIXED_CITY", "")),
		FixedState:     strings.TrimSpace(config.String("FIXED_STATE", "")),
	}

	weekdays, err := parseWeekdays(config.String("WEEKDAY_POLICY", defaultWeekdays))
	if err != nil {
		return Booking{}, err
	}
	cfg.Weekdays = weekdays

	blocked, err := ParseBlockedSlots(config.String("BLOCKED_SLOTS", ""))
	if err != nil {
		return Booking{}, err
	}
	cfg.BlockedSlots = blocked

	if len(cfg.Services) == 0 {
		return Booking{}, fmt.Errorf("SERVICE_CATALOG must not be empty")
	}
	if len(cfg.TimeSlots) == 0 {
		return Booking{}, fmt.Errorf("TIME_SLOT_CATALOG must not be empty")
	}
	for _, r := range cfg.BusinessPhone {
		if r < '0' || r > '9' {
			return Booking{}, fmt.Errorf("BUSINESS_PHONE must contain digits only (got %q)", cfg.BusinessPhone)
		}
	}
	return cfg, nil
}

// parseWeekdays reads a comma-separated list of weekday numbers
// (0=Sunday .. 6=Saturday).
func parseWeekdays(raw string) (map[time.Weekday]bool, error) {
	out := make(map[time.Weekday]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("WEEKDAY_POLICY entry %q is not a weekday number 0-6", part)
		}
		out[time.Weekday(n)] = true
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("WEEKDAY_POLICY must permit at least one weekday")
	}
	return out, nil
}

// ParseBlockedSlots reads the per-date block-list in the form
// "2026-09-07=08:00|09:00;2026-12-24=13:00".
func ParseBlockedSlots(raw string) (map[string][]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := make(map[string][]string)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		date, times, ok := strings.Cut(entry, "=")
		date = strings.TrimSpace(date)
		if !ok || date == "" {
			return nil, fmt.Errorf("BLOCKED_SLOTS entry %q must look like date=time|time", entry)
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("BLOCKED_SLOTS entry %q has an invalid date", entry)
		}
		for _, t := range strings.Split(times, "|") {
			t = strings.TrimSpace(t)
			if t != "" {
				out[date] = append(out[date], t)
			}
		}
	}
	return out, nil
}
