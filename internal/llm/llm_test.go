package llm

import (
	"errors"
	"testing"
)

func TestStripCodeBlock(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{}\n```  ", "{}"},
		{"fence mid-text untouched", "prefix ```json\n{}\n``` suffix", "prefix ```json\n{}\n``` suffix"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		if got := StripCodeBlock(c.in); got != c.want {
			t.Errorf("%s: expected %q, got %q", c.name, c.want, got)
		}
	}
}

func TestRetryableError_Message(t *testing.T) {
	err := &RetryableError{StatusCode: 429, Message: "rate limited"}
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}

	var re *RetryableError
	wrapped := error(err)
	if !errors.As(wrapped, &re) {
		t.Error("expected errors.As to match RetryableError")
	}
	if re.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", re.StatusCode)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("expected truncated string with ellipsis, got %q", got)
	}
}
