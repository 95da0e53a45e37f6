package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in      string
		version int
		want    string
	}{
		{"plain text", MarkdownV1, "plain text"},
		{"*bold* _it_ [x] `c`", MarkdownV1, `\*bold\* \_it\_ \[x] ` + "\\`c\\`"},
		{"1.5 (ok)!", MarkdownV2, `1\.5 \(ok\)\!`},
		{`a\b`, MarkdownV2, `a\\b`},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, tc.version)
		if err != nil {
			t.Fatalf("escape %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("escape %q v%d = %q, want %q", tc.in, tc.version, got, tc.want)
		}
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatalf("expected error for unknown version")
	}
}
