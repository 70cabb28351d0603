package utils

import "testing"

func TestFormatINR(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "₹0.00"},
		{100, "₹100.00"},
		{1000, "₹1,000.00"},
		{12345, "₹12,345.00"},
		{123456, "₹1,23,456.00"},
		{1234567, "₹12,34,567.00"},
		{12345678, "₹1,23,45,678.00"},
		{123456789, "₹12,34,56,789.00"},
		{2847.50, "₹2,847.50"},
		{-1234.56, "-₹1,234.56"},
		{100000, "₹1,00,000.00"},
		{10000000, "₹1,00,00,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatINR(tt.input)
			if result != tt.expected {
				t.Errorf("FormatINR(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatINRCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{500, "₹500.00"},
		{100000, "₹1 L"},
		{1500000, "₹15 L"},
		{10000000, "₹1 Cr"},
		{192734500000, "₹19273.45 Cr"},
		{1000000000000, "₹1 L Cr"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatINRCompact(tt.input)
			if result != tt.expected {
				t.Errorf("FormatINRCompact(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		decimals int
		expected string
	}{
		{2.45, 2, "+2.45%"},
		{-1.23, 2, "-1.23%"},
		{0.0, 2, "+0.00%"},
		{100, 1, "+100.0%"},
		{-33.333, 1, "-33.3%"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatPct(tt.input, tt.decimals)
			if result != tt.expected {
				t.Errorf("FormatPct(%f, %d) = %s, want %s", tt.input, tt.decimals, result, tt.expected)
			}
		})
	}
}

func TestFormatFixed(t *testing.T) {
	if got := FormatFixed(1.5, 2); got != "1.50" {
		t.Errorf("FormatFixed(1.5, 2) = %s, want 1.50", got)
	}
	if got := FormatFixed(-0.125, 3); got != "-0.125" {
		t.Errorf("FormatFixed(-0.125, 3) = %s, want -0.125", got)
	}
}
