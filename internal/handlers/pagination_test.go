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
	cases := [][2]string{
		{"0", "10"},
		{"-1", "10"},
		{"abc", "10"},
		{"1", "0"},
		{"1", "nope"},
	}
	for _, tc := range cases {
		if _, _, err := parsePaginationParams(tc[0], tc[1]); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", tc[0], tc[1])
		}
	}
}
