package classify

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Kind
	}{
		{"3373-01 - IRPJ", Code},
		{"3373-01", Code},
		{"2172 01 COFINS", Code},
		{"1507-SIMPLES NAC.", Code},
		{"01/2024", Date},
		{"31/01/2024", Date},
		{"2 TRI/2023", Date},
		{"175.704,97", Value},
		{"0,00", Value},
		{"DEVEDOR", Status},
		{"suspenso", Status},
		{"IRPJ", TaxType},
		{"CP-PATRONAL", TaxType},
		{"CNO: 12.345.67890/12", Other},
		{"CNPJ: 12.345.678/0001-90", Other},
		{"12.345.678/0001-90", Other},
		{"2024-01-01", Other},
		{"lowercase text", Other},
		{"", Other},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := Classify(tt.line); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		line    string
		code    string
		taxName string
	}{
		{"3373-01 - IRPJ", "3373-01", "IRPJ"},
		{"3373-01", "3373-01", ""},
		{"2172 01 COFINS", "2172-01", "COFINS"},
		{"1138-01 - CP-PATRONAL", "1138-01", "CP-PATRONAL"},
		{"1507-SIMPLES NAC.", "1507", "SIMPLES NAC."},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseCode(tt.line)
			if !ok {
				t.Fatalf("ParseCode(%q) not ok", tt.line)
			}
			if got.Code != tt.code || got.TaxName != tt.taxName {
				t.Errorf("ParseCode(%q) = %+v, want code %q tax %q", tt.line, got, tt.code, tt.taxName)
			}
			if got.Revenue != tt.line {
				t.Errorf("Revenue = %q", got.Revenue)
			}
		})
	}
	if _, ok := ParseCode("1234-567"); ok {
		t.Error("1234-567 parsed as code")
	}
}

func TestAnnotations(t *testing.T) {
	if cno, ok := CNO("CNO: 51.204.01234/70"); !ok || cno != "51.204.01234/70" {
		t.Errorf("CNO = %q, %v", cno, ok)
	}
	if cnpj, ok := LabeledCNPJ("CNPJ: 12.345.678/0001-90 - EMPRESA"); !ok || cnpj != "12.345.678/0001-90" {
		t.Errorf("LabeledCNPJ = %q, %v", cnpj, ok)
	}
	if !IsKnownTaxType("irpj") {
		t.Error("irpj not known")
	}
}
