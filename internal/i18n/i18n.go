// Package i18n holds the user-facing strings in English and Finnish.
package i18n

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/utils"
)

type Lang string

const (
	English Lang = "en"
	Finnish Lang = "fi"
)

// Strings is one language's catalog.
type Strings struct {
	AppTitle             string
	NoReminders          string
	NoRemindersText      string
	ScanButton           string
	Cancel               string
	NotificationsEnabled string
	YourReminders        string
	ScanNew              string
	DeleteAll            string
	DeleteTitle          string
	DeleteMessage        string
	DeleteConfirm        string
	Success              string
	RemindersLoaded      string
	AllDeleted           string
	Error                string
	InvalidCode          string
	ScanCooldown         string
	NotificationTitle    string
	LanguageName         string
	Daily                string
	Weekly               string
	EveryNDays           string // format with N
	Until                string
}

var catalogs = map[Lang]Strings{
	English: {
		AppTitle:             "Care Reminders",
		NoReminders:          "No Reminders",
		NoRemindersText:      "Scan QR code to load reminders",
		ScanButton:           "Scan QR Code",
		Cancel:               "Cancel",
		NotificationsEnabled: "Notifications On",
		YourReminders:        "Your Reminders",
		ScanNew:              "Scan New QR Code",
		DeleteAll:            "Delete All",
		DeleteTitle:          "Delete All?",
		DeleteMessage:        "Remove all reminders?",
		DeleteConfirm:        "Delete",
		Success:              "Success",
		RemindersLoaded:      "Reminders loaded",
		AllDeleted:           "All reminders deleted",
		Error:                "Error",
		InvalidCode:          "Invalid QR code",
		ScanCooldown:         "Please wait a moment before scanning again",
		NotificationTitle:    "Reminder",
		LanguageName:         "English",
		Daily:                "Daily",
		Weekly:               "Weekly",
		EveryNDays:           "Every %d Days",
		Until:                "Until",
	},
	Finnish: {
		AppTitle:             "Hoitomuistutukset",
		NoReminders:          "Ei Muistutuksia",
		NoRemindersText:      "Skannaa QR-koodi ladataksesi muistutukset",
		ScanButton:           "Skannaa QR-koodi",
		Cancel:               "Peruuta",
		NotificationsEnabled: "Ilmoitukset Päällä",
		YourReminders:        "Muistutuksesi",
		ScanNew:              "Skannaa Uusi",
		DeleteAll:            "Poista Kaikki",
		DeleteTitle:          "Poista Kaikki?",
		DeleteMessage:        "Poistetaanko kaikki muistutukset?",
		DeleteConfirm:        "Poista",
		Success:              "Valmis",
		RemindersLoaded:      "Muistutukset ladattu",
		AllDeleted:           "Kaikki muistutukset poistettu",
		Error:                "Virhe",
		InvalidCode:          "Virheellinen QR-koodi",
		ScanCooldown:         "Odota hetki ennen uutta skannausta",
		NotificationTitle:    "Muistutus",
		LanguageName:         "Suomi",
		Daily:                "Päivittäin",
		Weekly:               "Viikoittain",
		EveryNDays:           "Joka %d. päivä",
		Until:                "Päättyy",
	},
}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Finnish})

// Parse accepts a BCP 47 tag or a POSIX locale such as fi_FI.UTF-8 and
// returns the closest supported language.
func Parse(s string) (Lang, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" || s == "C" || s == "POSIX" {
		return English, nil
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("unknown language %q: %w", s, err)
	}
	_, idx, _ := matcher.Match(tag)
	if idx == 1 {
		return Finnish, nil
	}
	return English, nil
}

// Detect picks a language from LC_ALL, LC_MESSAGES or LANG, in that order.
func Detect() Lang {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			if lang, err := Parse(v); err == nil {
				return lang
			}
		}
	}
	return English
}

// Toggle switches between the two supported languages.
func (l Lang) Toggle() Lang {
	if l == Finnish {
		return English
	}
	return Finnish
}

// T returns the catalog for l, falling back to English.
func (l Lang) T() Strings {
	if s, ok := catalogs[l]; ok {
		return s
	}
	return catalogs[English]
}

// NotificationTitle is the title carried by every reminder notification.
func (l Lang) NotificationTitle() string {
	return l.T().NotificationTitle + " " + constants.NotificationIcon
}

// RepeatLabel describes a repeat type, or returns "" for one-time reminders.
func (l Lang) RepeatLabel(r models.RepeatType) string {
	t := l.T()
	switch r.Normalize() {
	case models.RepeatNone:
		return ""
	case models.RepeatDaily:
		return "🔁 " + t.Daily
	case models.RepeatWeekly:
		return "🔁 " + t.Weekly
	}
	if n, ok := r.IntervalDays(); ok {
		return "🔁 " + fmt.Sprintf(t.EveryNDays, n)
	}
	return ""
}

// UntilText renders an end date, e.g. "Until 2025-07-01". Unparseable dates
// are shown as given.
func (l Lang) UntilText(endDate string) string {
	if endDate == "" {
		return ""
	}
	shown := endDate
	if day, err := utils.ParseCalendarDate(endDate, time.Local); err == nil {
		shown = day.Format(constants.DateFormat)
	}
	return l.T().Until + " " + shown
}

// Loaded is the confirmation shown after a successful import.
func (l Lang) Loaded(patientName string) string {
	return l.T().RemindersLoaded + ": " + patientName
}
