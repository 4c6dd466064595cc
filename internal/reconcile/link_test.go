package reconcile

import "testing"

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		details string
		want    string
		wantOK  bool
	}{
		{"empty", "", "", false},
		{"only token", "[id](P1)", "P1", true},
		{"note then token", "do it\n[id](P1)", "P1", true},
		{"empty note", "\n[id](abc.def)", "abc.def", true},
		{"no token", "no token here", "", false},
		{"token not last", "[id](P1)\nmore text", "", false},
		{"empty token", "note\n[id]()", "", false},
		{"trailing newline", "note\n[id](P1)\n", "", false},
		{"missing paren", "note\n[id](P1", "", false},
		{"wrong wrapper", "note\n[ID](P1)", "", false},
		{"last of two", "[id](old)\n[id](new)", "new", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractToken(tt.details)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractToken(%q) = %q, %v; want %q, %v", tt.details, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	texts := []string{"", "do it", "line one\nline two", "ends with newline\n", "[id] in the middle of a line", "see [id](x) inline"}
	tokens := []string{"P1", "kCh3Gx9-2", "a b c", "ü"}
	for _, text := range texts {
		for _, token := range tokens {
			details := EmbedToken(text, token)
			got, ok := ExtractToken(details)
			if !ok || got != token {
				t.Errorf("ExtractToken(EmbedToken(%q, %q)) = %q, %v", text, token, got, ok)
			}
			if free := FreeText(details); free != text {
				t.Errorf("FreeText(EmbedToken(%q, %q)) = %q", text, token, free)
			}
		}
	}
}

func TestFreeTextWithoutToken(t *testing.T) {
	if got := FreeText("just a note"); got != "just a note" {
		t.Errorf("FreeText = %q", got)
	}
	if got := FreeText("[id](P1)"); got != "" {
		t.Errorf("FreeText of a bare token = %q, want empty", got)
	}
}
