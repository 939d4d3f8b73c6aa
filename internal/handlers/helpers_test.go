package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		limit string
	}{
		{"zero page", "0", "10"},
		{"negative page", "-1", "10"},
		{"non-numeric page", "abc", "10"},
		{"zero limit", "1", "0"},
		{"non-numeric limit", "1", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parsePaginationParams(tt.page, tt.limit); err == nil {
				t.Fatalf("expected error for page=%q limit=%q", tt.page, tt.limit)
			}
		})
	}
}

func TestValidateDisplayPrices(t *testing.T) {
	if msg := validateDisplayPrices(100, 150); msg != "" {
		t.Fatalf("expected valid prices, got %q", msg)
	}
	if msg := validateDisplayPrices(100, 0); msg != "" {
		t.Fatalf("expected priceOld 0 to be allowed, got %q", msg)
	}
	if msg := validateDisplayPrices(0, 0); msg == "" {
		t.Fatal("expected error for zero priceNew")
	}
	if msg := validateDisplayPrices(100, 80); msg == "" {
		t.Fatal("expected error when priceOld <= priceNew")
	}
}
