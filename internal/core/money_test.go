package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"-1.005", -101, true},
		{" 2.50 ", 250, true},
		{"-50", -5000, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents() != tc.cents {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.cents, got.Cents(), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustParseAmount("10.10")
	b := MustParseAmount("0.20")
	if got := a.Add(b).String(); got != "10.30" {
		t.Fatalf("add: got %s", got)
	}
	if got := b.Sub(a).String(); got != "-9.90" {
		t.Fatalf("sub: got %s", got)
	}
	if got := a.Neg(); !got.IsNegative() || !got.Abs().Equal(a) {
		t.Fatalf("neg/abs: got %s", got)
	}
	if a.Cmp(b) <= 0 {
		t.Fatalf("expected %s > %s", a, b)
	}
	if !Cents(-5000).Equal(MustParseAmount("-50")) {
		t.Fatalf("Cents(-5000) != -50")
	}
	if (Money{}).String() != "0.00" {
		t.Fatalf("zero value should render 0.00")
	}
}

func TestMoneyDisplay(t *testing.T) {
	got := Cents(123456).Display()
	if !strings.Contains(got, "234.56") || !strings.Contains(got, "€") {
		t.Fatalf("unexpected display %q", got)
	}
	if neg := Cents(-100).Display(); !strings.HasPrefix(neg, "-") {
		t.Fatalf("negative display should start with '-': %q", neg)
	}
}

func TestNullMoneyJSON(t *testing.T) {
	type row struct {
		Amount  NullMoney `json:"amount"`
		Planned NullMoney `json:"planned"`
	}
	b, err := json.Marshal(row{Amount: Some(Cents(-5000))})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":"-50.00","planned":null}` {
		t.Fatalf("unexpected json %s", b)
	}

	var back row
	if err := json.Unmarshal([]byte(`{"amount":12.5,"planned":null}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m, ok := back.Amount.Get(); !ok || m.Cents() != 1250 {
		t.Fatalf("amount: got %v %v", m, ok)
	}
	if back.Planned.Valid {
		t.Fatalf("planned should be absent")
	}
}
