package service

import (
	"strings"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/facebook"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/models"
)

type canonicalField int

const (
	fieldEmail canonicalField = iota
	fieldPhone
	fieldName
	fieldCity
	fieldProfession
	fieldBudget
	fieldTimeline
)

// fieldAliases maps lowercased Facebook form-field names onto the lead schema.
// Anything not listed here lands in the notes.
var fieldAliases = map[string]canonicalField{
	"email":        fieldEmail,
	"phone_number": fieldPhone,
	"phone":        fieldPhone,
	"full_name":    fieldName,
	"name":         fieldName,
	"first_name":   fieldName,
	"city":         fieldCity,
	"location":     fieldCity,
	"job_title":    fieldProfession,
	"profession":   fieldProfession,
	"occupation":   fieldProfession,
	"budget":       fieldBudget,
	"timeline":     fieldTimeline,
}

// ExtractLeadInfo normalizes one lead's form fields into the canonical shape.
// Only the first value of a field is used; a later field mapping to the same
// target overwrites the earlier one. Unrecognized fields are appended to Notes
// as "<Name>: <value>" lines in encounter order.
func ExtractLeadInfo(fields []facebook.FieldData) models.ExtractedInfo {
	var info models.ExtractedInfo
	var notes []string

	for _, f := range fields {
		if len(f.Values) == 0 {
			continue
		}
		value := f.Values[0]

		target, ok := fieldAliases[strings.ToLower(f.Name)]
		if !ok {
			notes = append(notes, f.Name+": "+value)
			continue
		}

		switch target {
		case fieldEmail:
			info.Email = value
		case fieldPhone:
			info.Phone = value
		case fieldName:
			info.Name = value
		case fieldCity:
			info.City = value
		case fieldProfession:
			info.Profession = value
		case fieldBudget:
			info.Budget = value
		case fieldTimeline:
			info.Timeline = value
		}
	}

	info.Notes = strings.Join(notes, "\n")
	return info
}

// HasRequiredFields reports whether an extracted lead can be persisted: it
// needs a name and at least one dedup key (email or phone).
func HasRequiredFields(info models.ExtractedInfo) bool {
	return info.Name != "" && (info.Email != "" || info.Phone != "")
}
