package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Miniatures", want: "miniatures"},
		{name: "spaces", in: "Desk Organizers", want: "desk-organizers"},
		{name: "punctuation", in: "Tabletop & Terrain!", want: "tabletop-terrain"},
		{name: "leading trailing space", in: "  Spare Parts  ", want: "spare-parts"},
		{name: "consecutive separators", in: "Home --- Decor", want: "home-decor"},
		{name: "unicode stripped", in: "Vasés", want: "vass"},
		{name: "digits kept", in: "M3 Bolts 2024", want: "m3-bolts-2024"},
		{name: "empty", in: "", want: ""},
		{name: "only punctuation", in: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.in); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
