package list

import "testing"

func TestParseDraft(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Draft
	}{
		{"qty times", "3x bananen", Draft{Name: "bananen", Quantity: 3, Section: "Groente & Fruit"}},
		{"qty times no space", "3xbananen", Draft{Name: "bananen", Quantity: 3, Section: "Groente & Fruit"}},
		{"multiplication sign", "2 × melk", Draft{Name: "melk", Quantity: 2, Section: "Eigen"}},
		{"unit first", "500g pasta", Draft{Name: "pasta", Quantity: 500, Unit: "g", Section: "Eigen"}},
		{"unit first decimal", "0.5kg gehakt", Draft{Name: "gehakt", Quantity: 0.5, Unit: "kg", Section: "Vega"}},
		{"unit first multiword name", "500g Rijst azijn", Draft{Name: "Rijst azijn", Quantity: 500, Unit: "g", Section: "Pasta & Rijst"}},
		{"unit last", "pasta 500g", Draft{Name: "pasta", Quantity: 500, Unit: "g", Section: "Eigen"}},
		{"bare name", "melk", Draft{Name: "melk", Quantity: 1, Section: "Eigen"}},
		{"bare multiword name", "Crème Fraîche (125ml)", Draft{Name: "Crème Fraîche (125ml)", Quantity: 1, Section: "Zuivel"}},
		{"zero quantity becomes one", "0x melk", Draft{Name: "melk", Quantity: 1, Section: "Eigen"}},
		{"surrounding whitespace", "  2x brood  ", Draft{Name: "brood", Quantity: 2, Section: "Brood"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseDraft(c.in)
			if got == nil {
				t.Fatalf("ParseDraft(%q) = nil", c.in)
			}
			if *got != c.want {
				t.Errorf("ParseDraft(%q) = %+v, want %+v", c.in, *got, c.want)
			}
		})
	}
}

func TestParseDraftBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		if got := ParseDraft(in); got != nil {
			t.Errorf("ParseDraft(%q) = %+v, want nil", in, got)
		}
	}
}

func TestParseDraftPatternPrecedence(t *testing.T) {
	// "2x 500g pasta": the times notation wins over unit-first; the rest of
	// the line becomes the name.
	got := ParseDraft("2x 500g pasta")
	if got.Quantity != 2 || got.Name != "500g pasta" {
		t.Errorf("Expected times notation to win, got %+v", got)
	}

	// "pasta 2x": no unit-last match ("x" is the unit here), quantity 2.
	got = ParseDraft("pasta 2x")
	if got.Quantity != 2 || got.Unit != "x" || got.Name != "pasta" {
		t.Errorf("Unexpected parse: %+v", got)
	}
}
