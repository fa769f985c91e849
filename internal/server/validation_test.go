package server

import "testing"

func TestValidateName(t *testing.T) {
	cases := map[string]bool{
		"Ann":                                  true,
		"  Anna  Maria ":                       true,
		"Пётр":                                 true,
		"":                                     false,
		"<b>":                                  false,
		"a-very-long-name-that-goes-on-and-on": false,
	}
	for input, ok := range cases {
		_, err := validateName(input)
		if ok && err != nil {
			t.Fatalf("validateName(%q): unexpected error %v", input, err)
		}
		if !ok && err == nil {
			t.Fatalf("validateName(%q): expected error", input)
		}
	}
	if got, _ := validateName("  Anna  Maria "); got != "Anna Maria" {
		t.Fatalf("expected normalized name, got %q", got)
	}
}

func TestValidateCode(t *testing.T) {
	if got, err := validateCode(" 0421 "); err != nil || got != "0421" {
		t.Fatalf("unexpected result %q %v", got, err)
	}
	for _, bad := range []string{"", "12a4", "1234567890"} {
		if _, err := validateCode(bad); err == nil {
			t.Fatalf("validateCode(%q): expected error", bad)
		}
	}
}
