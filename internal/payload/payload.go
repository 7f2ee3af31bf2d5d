// Package payload decodes the codes a caregiver hands out: a QR code whose
// text is either raw JSON or a deep link, or the deep link itself.
package payload

import (
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gookit/validate"

	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/errors"
	"github.com/julianstephens/careminder/internal/models"
)

// DefaultScheme is the deep link scheme used by Encode.
const DefaultScheme = "careminder://import"

// dataParam matches everything after the first data= query parameter.
var dataParam = regexp.MustCompile(`[?&]data=(.+)$`)

var errNoReminders = stderrors.New("reminders list is missing")

type wirePatient struct {
	PatientName string          `json:"patientName" validate:"required"`
	Reminders   *[]wireReminder `json:"reminders"`
}

type wireReminder struct {
	ID         int64  `json:"id"`
	Message    string `json:"message" validate:"required"`
	Time       string `json:"time" validate:"required"`
	RepeatType string `json:"repeatType"`
	EndDate    string `json:"endDate"`
}

// Decode turns a scanned string or deep link into PatientData. Any failure
// is a *errors.DecodeError; nothing about a rejected payload is kept.
func Decode(raw string) (models.PatientData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.PatientData{}, &errors.DecodeError{Err: stderrors.New("empty payload")}
	}

	body := []byte(raw)
	if m := dataParam.FindStringSubmatch(raw); m != nil {
		decoded, err := decodeDataParam(m[1])
		if err != nil {
			return models.PatientData{}, &errors.DecodeError{Err: err}
		}
		body = decoded
	}

	data, err := parse(body)
	if err != nil {
		return models.PatientData{}, &errors.DecodeError{Err: err}
	}
	return data, nil
}

// decodeDataParam undoes base64 then percent encoding. Spaces are what a
// URL decoder leaves behind for '+', so they are restored first.
func decodeDataParam(param string) ([]byte, error) {
	b64 := strings.ReplaceAll(param, " ", "+")
	if strings.Contains(b64, "%") {
		if unescaped, err := url.QueryUnescape(b64); err == nil {
			b64 = strings.ReplaceAll(unescaped, " ", "+")
		}
	}

	var (
		decoded []byte
		err     error
	)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		decoded, err = enc.DecodeString(b64)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("data parameter is not base64: %w", err)
	}

	text, err := url.PathUnescape(string(decoded))
	if err != nil {
		return nil, fmt.Errorf("data parameter is not percent-encoded: %w", err)
	}
	return []byte(text), nil
}

func parse(body []byte) (models.PatientData, error) {
	var wire wirePatient
	if err := json.Unmarshal(body, &wire); err != nil {
		return models.PatientData{}, fmt.Errorf("invalid JSON: %w", err)
	}

	v := validate.Struct(&wire)
	if !v.Validate() {
		return models.PatientData{}, fmt.Errorf("invalid patient data: %s", v.Errors.One())
	}
	if wire.Reminders == nil {
		return models.PatientData{}, errNoReminders
	}

	data := models.PatientData{
		PatientName: wire.PatientName,
		Reminders:   make([]models.Reminder, 0, len(*wire.Reminders)),
	}
	for i := range *wire.Reminders {
		w := &(*wire.Reminders)[i]
		rv := validate.Struct(w)
		if !rv.Validate() {
			return models.PatientData{}, fmt.Errorf("reminder %d: %s", i, rv.Errors.One())
		}

		r := models.Reminder{
			ID:         w.ID,
			Message:    w.Message,
			Time:       w.Time,
			Notified:   false,
			RepeatType: models.RepeatType(w.RepeatType),
			EndDate:    w.EndDate,
		}
		if err := r.Validate(); err != nil {
			return models.PatientData{}, err
		}
		data.Reminders = append(data.Reminders, r)
	}

	return data, nil
}

// Encode renders data as a deep link that Decode accepts.
func Encode(data models.PatientData, scheme string) (string, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}
	body, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	escaped := strings.ReplaceAll(url.QueryEscape(string(body)), "+", "%20")
	b64 := base64.StdEncoding.EncodeToString([]byte(escaped))
	return scheme + "?" + constants.DeepLinkDataParam + b64, nil
}
