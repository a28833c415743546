package utils

import "testing"

func TestValidateEmail(t *testing.T) {
	valid := []string{"scholar@example.com", "a.b+c@sub.domain.org"}
	for _, email := range valid {
		if !ValidateEmail(email) {
			t.Fatalf("%q must be valid", email)
		}
	}
	invalid := []string{"", "no-at.example.com", "user@", "@domain.com", "user@domain"}
	for _, email := range invalid {
		if ValidateEmail(email) {
			t.Fatalf("%q must be invalid", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, msg := ValidatePassword("short"); ok || msg == "" {
		t.Fatalf("short password must fail with a message")
	}
	if ok, _ := ValidatePassword("longenough"); !ok {
		t.Fatalf("eight or more characters must pass")
	}
}

func TestValidateSubmissionURL(t *testing.T) {
	valid := []string{
		"https://youtube.com/watch?v=abc",
		"http://example.com/post/1",
		"  https://medium.com/@author/piece  ",
	}
	for _, raw := range valid {
		if !ValidateSubmissionURL(raw) {
			t.Fatalf("%q must be valid", raw)
		}
	}
	invalid := []string{"", "notaurl", "ftp://example.com/file", "https://", "/relative/path"}
	for _, raw := range invalid {
		if ValidateSubmissionURL(raw) {
			t.Fatalf("%q must be invalid", raw)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  hello\x00world  "); got != "helloworld" {
		t.Fatalf("got %q want %q", got, "helloworld")
	}
}
