package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for createdAt and updatedAt.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayouts are the accepted calendar date and timestamp formats, tried
// in order. Values without an offset are read as UTC.
var DateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses value with the first matching layout in DateLayouts.
func ParseDate(value string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TrackingKeys lists attribution keys in canonical order.
var TrackingKeys = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
	"gclid",
	"fbclid",
}

// IsTrackingKey reports whether key is one of TrackingKeys.
func IsTrackingKey(key string) bool {
	return slices.Contains(TrackingKeys, key)
}

// LeadStore defines lead operations exposed to the API layer.
type LeadStore interface {
	List(ctx context.Context, search string) ([]Lead, error)
	GetByID(ctx context.Context, id string) (Lead, bool, error)
	Create(ctx context.Context, input LeadInput) (Lead, error)
	Update(ctx context.Context, id string, input LeadInput) (Lead, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Export(ctx context.Context, search string) (string, error)
}

// Lead represents a captured contact record.
type Lead struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Role      string   `json:"role"`
	BirthDate string   `json:"birthDate"`
	Message   string   `json:"message"`
	Tracking  Tracking `json:"tracking"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// UnmarshalJSON reads a stored record leniently. Scalar fields of any JSON
// type are kept in their text form so that a single off-type value does not
// reject the whole collection. A tracking value that is not an object is
// dropped.
func (l *Lead) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode lead: %w", err)
	}

	lead := Lead{}
	fields := map[string]*string{
		"id":        &lead.ID,
		"name":      &lead.Name,
		"email":     &lead.Email,
		"phone":     &lead.Phone,
		"role":      &lead.Role,
		"birthDate": &lead.BirthDate,
		"message":   &lead.Message,
		"createdAt": &lead.CreatedAt,
		"updatedAt": &lead.UpdatedAt,
	}
	for key, dst := range fields {
		if value, ok := raw[key]; ok {
			*dst = scalarString(value)
		}
	}

	if value, ok := raw["tracking"]; ok {
		var tracking Tracking
		if err := json.Unmarshal(value, &tracking); err == nil {
			lead.Tracking = tracking
		}
	}

	*l = lead
	return nil
}

func scalarString(data json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// CreatedTime parses CreatedAt with DateLayouts. Unparsable values yield
// the zero time.
func (l Lead) CreatedTime() time.Time {
	t, _ := ParseDate(l.CreatedAt)
	return t
}

// LeadInput carries fields for create and update. Nil fields are absent.
// A key present in Tracking overrides the stored value.
type LeadInput struct {
	Name      *string
	Email     *string
	Phone     *string
	Role      *string
	BirthDate *string
	Message   *string
	Tracking  map[string]string
}

// Tracking maps attribution keys to values.
type Tracking map[string]string

// MarshalJSON writes canonical keys first, in canonical order, then any
// remaining keys sorted.
func (t Tracking) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key, value string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	for _, key := range TrackingKeys {
		value, ok := t[key]
		if !ok {
			continue
		}
		if err := write(key, value); err != nil {
			return nil, err
		}
	}

	extra := make([]string, 0)
	for key := range t {
		if !IsTrackingKey(key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	for _, key := range extra {
		if err := write(key, t[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts loosely typed stored values. Falsy values become
// empty strings, other scalars their text form.
func (t *Tracking) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*t = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	raw := map[string]any{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode tracking: %w", err)
	}

	out := make(Tracking, len(raw))
	for key, value := range raw {
		out[key] = trackingString(value)
	}
	*t = out
	return nil
}

func trackingString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		return ""
	}
}

// Normalize returns a copy of lead whose tracking holds exactly the
// canonical keys.
func Normalize(lead Lead) Lead {
	tracking := make(Tracking, len(TrackingKeys))
	for _, key := range TrackingKeys {
		tracking[key] = lead.Tracking[key]
	}
	lead.Tracking = tracking
	return lead
}

// NewLead assembles a fresh record from input.
func NewLead(id string, input LeadInput, now time.Time) Lead {
	ts := FormatTimestamp(now)
	lead := Lead{
		ID:        id,
		Name:      deref(input.Name),
		Email:     deref(input.Email),
		Phone:     deref(input.Phone),
		Role:      deref(input.Role),
		BirthDate: deref(input.BirthDate),
		Message:   deref(input.Message),
		Tracking:  make(Tracking, len(TrackingKeys)),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	for _, key := range TrackingKeys {
		lead.Tracking[key] = input.Tracking[key]
	}
	return lead
}

// Reconcile applies input over existing field by field. Tracking starts
// from the existing canonical values and is overridden per present key.
func Reconcile(existing Lead, input LeadInput, now time.Time) Lead {
	updated := existing

	if input.Name != nil {
		updated.Name = *input.Name
	}
	if input.Email != nil {
		updated.Email = *input.Email
	}
	if input.Phone != nil {
		updated.Phone = *input.Phone
	}
	if input.Role != nil {
		updated.Role = *input.Role
	}
	if input.BirthDate != nil {
		updated.BirthDate = *input.BirthDate
	}
	if input.Message != nil {
		updated.Message = *input.Message
	}

	tracking := make(Tracking, len(TrackingKeys))
	for _, key := range TrackingKeys {
		tracking[key] = existing.Tracking[key]
		if value, ok := input.Tracking[key]; ok {
			tracking[key] = value
		}
	}
	updated.Tracking = tracking
	updated.UpdatedAt = FormatTimestamp(now)

	return updated
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// MatchesSearch reports whether the lead name or email contains term,
// ignoring case. term must already be lower-cased.
func (l Lead) MatchesSearch(term string) bool {
	return strings.Contains(strings.ToLower(l.Name), term) ||
		strings.Contains(strings.ToLower(l.Email), term)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
