package normalize

import "testing"

func TestFold(t *testing.T) {
	if got := Fold("Pendência - Débito (SIEF)"); got != "Pendencia - Debito (SIEF)" {
		t.Errorf("Fold = %q", got)
	}
	if got := FoldUpper(" Inscrição "); got != "INSCRICAO" {
		t.Errorf("FoldUpper = %q", got)
	}
	if !ContainsFold("1507-SIMPLES NAC.", "simples") {
		t.Error("ContainsFold missed simples")
	}
}

func TestCleanText(t *testing.T) {
	in := "a\t\tb\r\n\r\n\r\n\r\n  c    d  \fe"
	want := "a b\n\nc d\ne"
	if got := CleanText(in); got != want {
		t.Errorf("CleanText = %q, want %q", got, want)
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("12.345.678/0001-90"); got != "12345678000190" {
		t.Errorf("Digits = %q", got)
	}
}
