package utils

import "testing"

func TestValidEmail(t *testing.T) {
	for _, email := range []string{"editor@example.org", "first.last+tag@journal.co.uk"} {
		if !ValidEmail(email) {
			t.Fatalf("%q should be accepted", email)
		}
	}
	for _, email := range []string{"", "editor", "editor@", "@example.org", "editor@example", "ed itor@example.org"} {
		if ValidEmail(email) {
			t.Fatalf("%q should be rejected", email)
		}
	}
}

func TestCheckPassword(t *testing.T) {
	if ok, _ := CheckPassword("s3cure-enough"); !ok {
		t.Fatalf("valid password rejected")
	}
	if ok, msg := CheckPassword("short"); ok || msg == "" {
		t.Fatalf("short password should be rejected with a message")
	}
	if ok, _ := CheckPassword(" padded-password "); ok {
		t.Fatalf("whitespace-padded password should be rejected")
	}
}

func TestCleanInput(t *testing.T) {
	if got := CleanInput("  editor@example.org\x00 "); got != "editor@example.org" {
		t.Fatalf("got %q", got)
	}
}
