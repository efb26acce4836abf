package freeze

import (
	"slices"
	"time"

	"github.com/martinsuhendra/manta/pkg/domain"
)

// PresetDays are the durations offered as one-click choices.
var PresetDays = []int{7, 14, 30, 60, 90}

const (
	MinCustomDays = 1
	MaxCustomDays = 365
)

// Duration is how long an approved freeze lasts. Exactly one field must be set.
type Duration struct {
	PresetDays    *int       `json:"presetDays,omitempty"`
	CustomDays    *int       `json:"customDays,omitempty"`
	FreezeEndDate *time.Time `json:"freezeEndDate,omitempty"`
}

// Validate enforces that exactly one of the three inputs is present and in range.
func (d Duration) Validate() error {
	provided := 0
	for _, set := range []bool{d.PresetDays != nil, d.CustomDays != nil, d.FreezeEndDate != nil} {
		if set {
			provided++
		}
	}
	if provided != 1 {
		return domain.NewValidationError("duration", "Provide exactly one of presetDays, customDays or freezeEndDate").
			WithDetail("provided", provided)
	}

	switch {
	case d.PresetDays != nil:
		if !slices.Contains(PresetDays, *d.PresetDays) {
			return domain.NewValidationError("presetDays", "presetDays must be one of 7, 14, 30, 60 or 90")
		}
	case d.CustomDays != nil:
		if *d.CustomDays < MinCustomDays || *d.CustomDays > MaxCustomDays {
			return domain.NewValidationError("customDays", "customDays must be between 1 and 365")
		}
	}
	return nil
}

// Resolve turns the duration into a concrete end date and frozen day count for a freeze starting at start.
func (d Duration) Resolve(start time.Time) (end time.Time, totalDays int, err error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, 0, err
	}

	switch {
	case d.PresetDays != nil:
		return CalculateFreezeEndDate(start, *d.PresetDays), *d.PresetDays, nil
	case d.CustomDays != nil:
		return CalculateFreezeEndDate(start, *d.CustomDays), *d.CustomDays, nil
	default:
		end := d.FreezeEndDate.UTC()
		if !calendarDate(end).After(calendarDate(start)) {
			return time.Time{}, 0, domain.NewValidationError("freezeEndDate", "freezeEndDate must be after the freeze start date")
		}
		return end, CalculateTotalFrozenDays(start, end), nil
	}
}
