package service

import (
	"strings"
	"testing"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/facebook"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/models"
)

func field(name string, values ...string) facebook.FieldData {
	return facebook.FieldData{Name: name, Values: values}
}

func TestExtractLeadInfo_AliasTable(t *testing.T) {
	cases := []struct {
		fieldName string
		value     string
		get       func(models.ExtractedInfo) string
	}{
		{"email", "a@x.com", func(i models.ExtractedInfo) string { return i.Email }},
		{"EMAIL", "b@x.com", func(i models.ExtractedInfo) string { return i.Email }},
		{"phone_number", "+911111", func(i models.ExtractedInfo) string { return i.Phone }},
		{"phone", "+922222", func(i models.ExtractedInfo) string { return i.Phone }},
		{"full_name", "Asha", func(i models.ExtractedInfo) string { return i.Name }},
		{"name", "Ravi", func(i models.ExtractedInfo) string { return i.Name }},
		{"first_name", "Mina", func(i models.ExtractedInfo) string { return i.Name }},
		{"city", "Pune", func(i models.ExtractedInfo) string { return i.City }},
		{"location", "Delhi", func(i models.ExtractedInfo) string { return i.City }},
		{"job_title", "Trainer", func(i models.ExtractedInfo) string { return i.Profession }},
		{"profession", "Coach", func(i models.ExtractedInfo) string { return i.Profession }},
		{"occupation", "Dietician", func(i models.ExtractedInfo) string { return i.Profession }},
		{"budget", "5000", func(i models.ExtractedInfo) string { return i.Budget }},
		{"timeline", "1 month", func(i models.ExtractedInfo) string { return i.Timeline }},
	}

	for _, tc := range cases {
		info := ExtractLeadInfo([]facebook.FieldData{field(tc.fieldName, tc.value)})
		if got := tc.get(info); got != tc.value {
			t.Errorf("field %q: expected %q, got %q", tc.fieldName, tc.value, got)
		}
	}
}

func TestExtractLeadInfo_UnknownFieldsGoToNotesInOrder(t *testing.T) {
	info := ExtractLeadInfo([]facebook.FieldData{
		field("Fitness Goal", "weight loss"),
		field("email", "a@x.com"),
		field("Preferred Time", "morning"),
	})

	want := "Fitness Goal: weight loss\nPreferred Time: morning"
	if info.Notes != want {
		t.Fatalf("expected notes %q, got %q", want, info.Notes)
	}
	if info.Email != "a@x.com" {
		t.Fatalf("expected email extracted alongside notes, got %q", info.Email)
	}
}

func TestExtractLeadInfo_FirstValueOnly(t *testing.T) {
	info := ExtractLeadInfo([]facebook.FieldData{field("email", "first@x.com", "second@x.com")})
	if info.Email != "first@x.com" {
		t.Fatalf("expected first value, got %q", info.Email)
	}
}

func TestExtractLeadInfo_LastAliasWins(t *testing.T) {
	info := ExtractLeadInfo([]facebook.FieldData{
		field("full_name", "Asha"),
		field("first_name", "Mina"),
	})
	if info.Name != "Mina" {
		t.Fatalf("expected last-wins overwrite, got %q", info.Name)
	}
}

func TestExtractLeadInfo_EmptyValuesIgnored(t *testing.T) {
	info := ExtractLeadInfo([]facebook.FieldData{
		{Name: "email"},
		field("phone", "+911111"),
	})
	if info.Email != "" {
		t.Fatalf("expected empty-value field ignored, got %q", info.Email)
	}
	if info.Phone != "+911111" {
		t.Fatalf("expected phone extracted, got %q", info.Phone)
	}
	if strings.Contains(info.Notes, "email") {
		t.Fatalf("empty field must not leak into notes: %q", info.Notes)
	}
}

func TestHasRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		info models.ExtractedInfo
		want bool
	}{
		{"name and email", models.ExtractedInfo{Name: "A", Email: "a@x.com"}, true},
		{"name and phone", models.ExtractedInfo{Name: "A", Phone: "+91"}, true},
		{"name only", models.ExtractedInfo{Name: "A"}, false},
		{"contact only", models.ExtractedInfo{Email: "a@x.com", Phone: "+91"}, false},
		{"empty", models.ExtractedInfo{}, false},
	}
	for _, tc := range cases {
		if got := HasRequiredFields(tc.info); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
