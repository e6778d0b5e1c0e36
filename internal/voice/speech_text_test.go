package voice

import "testing"

func TestSanitizeNarration(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"bold markers stripped",
			"You are **Lysandra**, trapped!",
			"You are Lysandra, trapped!",
		},
		{
			"emphasis stays tight to punctuation",
			"*The Whispering Library.* You hear **nothing**; then, a click.",
			"The Whispering Library. You hear nothing; then, a click.",
		},
		{
			"option parentheses survive",
			"(A) Investigate the bolt. (B) Examine the desk.",
			"(A) Investigate the bolt. (B) Examine the desk.",
		},
		{
			"list bullets collapse",
			"* **(A)** Investigate.\n* **(B)** Examine.",
			"(A) Investigate. (B) Examine.",
		},
		{
			"inline code removed",
			"call `restart_tool` now",
			"call now",
		},
		{
			"whitespace collapsed",
			"Which option   (A, B, C, or D)\n do you choose?",
			"Which option (A, B, C, or D) do you choose?",
		},
		{
			"empty input",
			"   ",
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeNarration(tc.in); got != tc.want {
				t.Fatalf("SanitizeNarration(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
