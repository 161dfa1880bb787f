package db

import "testing"

func TestFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"draft", `"draft"*`},
		{"weekly  plan", `"weekly"* "plan"*`},
		{`say "hi"`, `"say"* """hi"""*`},
		{"NEAR OR", `"NEAR"* "OR"*`},
	}
	for i, tc := range tests {
		if got := ftsQuery(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, got, tc.want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(nil) {
		t.Fatal("nil is not a violation")
	}
	if !isUniqueViolation(errString("UNIQUE constraint failed: users.email")) {
		t.Fatal("expected violation")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
