package scraper

import "testing"

func TestRepairEncoding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "u umlaut", in: "SÃ¼t", want: "Süt"},
		{name: "dotless i", in: "MÄ±sÄ±r", want: "Mısır"},
		{name: "c cedilla", in: "Ã§orba", want: "çorba"},
		{name: "clean text untouched", in: "Pınar Süt 1 Lt", want: "Pınar Süt 1 Lt"},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RepairEncoding(tc.in); got != tc.want {
				t.Fatalf("RepairEncoding(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFoldASCII(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Süt", want: "sut"},
		{in: "TAVUK GÖĞSÜ", want: "tavuk gogsu"},
		{in: "çeşni", want: "cesni"},
		{in: "milk", want: "milk"},
	}
	for _, tc := range tests {
		if got := FoldASCII(tc.in); got != tc.want {
			t.Fatalf("FoldASCII(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
