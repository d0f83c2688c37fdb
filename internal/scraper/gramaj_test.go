package scraper

import "testing"

func TestParseGramaj(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   float64
		wantOK bool
	}{
		{name: "gram", in: "Pınar Kıyma 500 g", want: 500, wantOK: true},
		{name: "gr suffix", in: "Torku Çikolata 80gr", want: 80, wantOK: true},
		{name: "kilogram", in: "Baldo Pirinç 2,5 kg", want: 2500, wantOK: true},
		{name: "litre under threshold", in: "Sütaş Süt 1 lt", want: 1000, wantOK: true},
		{name: "mililitre over threshold", in: "Kolonya 400 ml", want: 400, wantOK: true},
		{name: "comma decimal litre", in: "Ayran 0,5 L", want: 500, wantOK: true},
		{name: "no unit", in: "Ekmek", wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseGramaj(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ParseGramaj(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("ParseGramaj(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestAttachGramaj(t *testing.T) {
	existing := 250.0
	if got := AttachGramaj("Süt 1 lt", &existing); got == nil || *got != 250 {
		t.Fatalf("existing gramaj must be kept, got %v", got)
	}
	if got := AttachGramaj("Süt 1 lt", nil); got == nil || *got != 1000 {
		t.Fatalf("expected 1000 from name, got %v", got)
	}
	if got := AttachGramaj("Ekmek", nil); got != nil {
		t.Fatalf("expected nil for unitless name, got %v", *got)
	}
}
