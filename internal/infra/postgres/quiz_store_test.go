package postgres

import "testing"

func TestLikePatternEscapesMetacharacters(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"history", "%history%"},
		{"100%", `%100\%%`},
		{"snake_case", `%snake\_case%`},
		{`back\slash`, `%back\\slash%`},
	}
	for _, tc := range cases {
		if got := likePattern(tc.in); got != tc.want {
			t.Fatalf("likePattern(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
