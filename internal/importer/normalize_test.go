package importer

import (
	"reflect"
	"testing"

	"door-catalog/internal/models"
)

func TestParseSpecifications(t *testing.T) {
	tests := []struct {
		in   string
		want []models.Specification
	}{
		{"Color:Red;Size:Large", []models.Specification{{Key: "Color", Value: "Red"}, {Key: "Size", Value: "Large"}}},
		{" Key : Value ", []models.Specification{{Key: "Key", Value: "Value"}}},
		{"Ratio:1:2", []models.Specification{{Key: "Ratio", Value: "1:2"}}},
		{":orphan; empty: ;novalue;ok:yes", []models.Specification{{Key: "ok", Value: "yes"}}},
		{"", nil},
		{";;;", nil},
	}

	for _, tt := range tests {
		got := parseSpecifications(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseSpecifications(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveType(t *testing.T) {
	tests := map[string]models.ProductType{
		"cửa":              models.TypeDoor,
		"Cửa gỗ":           models.TypeDoor,
		"":                 models.TypeDoor,
		"phụ kiện":         models.TypeAccessory,
		"  PHỤ KIỆN cửa  ": models.TypeAccessory,
		"phu kien":         models.TypeAccessory,
		"Door accessories": models.TypeAccessory,
	}
	for in, want := range tests {
		if got := resolveType(in); got != want {
			t.Errorf("resolveType(%q) = %s, expected %s", in, got, want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := map[string]float64{
		"":             0,
		"abc":          0,
		"-100":         0,
		"1500000":      1500000,
		"4.500.000 đ":  4500000,
		"4,500,000₫":   4500000,
		"250,000 VND":  250000,
		"1.250.000,50": 1250000.5,
		"1,250.50":     1250.5,
		"12.5":         12.5,
		"12,5":         12.5,
		" 3 200 000 ":  3200000,
	}
	for in, want := range tests {
		if got := parsePrice(in); got != want {
			t.Errorf("parsePrice(%q) = %v, expected %v", in, got, want)
		}
	}
}

func TestResolveCategory(t *testing.T) {
	categories := []string{"Composite", "Cửa gỗ tự nhiên"}

	if got := resolveCategory("  cửa GỖ tự nhiên ", categories); got != "Cửa gỗ tự nhiên" {
		t.Errorf("Known category should keep the configured spelling, got %q", got)
	}
	if got := resolveCategory("Unknown", categories); got != "Composite" {
		t.Errorf("Unknown category should fall back to the first one, got %q", got)
	}
	if got := resolveCategory("", categories); got != "Composite" {
		t.Errorf("Blank category should fall back to the first one, got %q", got)
	}
	if got := resolveCategory("Anything", nil); got != "Anything" {
		t.Errorf("Without categories the value is kept, got %q", got)
	}
}

func TestBuildInputDefaults(t *testing.T) {
	s := models.Settings{
		Categories: []string{"Composite"},
		SpecTemplates: map[models.ProductType][]models.Specification{
			models.TypeDoor: {{Key: "Bảo hành", Value: "24 tháng"}},
		},
	}

	in := buildInput(models.ImportRow{Features: " a ;; b ;"}, s)
	if in.Name != DefaultProductName || in.Price != 0 || in.Category != "Composite" || in.Type != models.TypeDoor {
		t.Errorf("Unexpected defaults %+v", in)
	}
	if !reflect.DeepEqual(in.Features, []string{"a", "b"}) {
		t.Errorf("Unexpected features %v", in.Features)
	}
	if !reflect.DeepEqual(in.Specifications, s.SpecTemplates[models.TypeDoor]) {
		t.Errorf("Expected door template, got %v", in.Specifications)
	}

	empty := buildInput(models.ImportRow{Name: "x"}, s)
	if empty.Features == nil || len(empty.Features) != 0 {
		t.Errorf("Absent features should be an empty list, got %#v", empty.Features)
	}
}
