package casing

import "testing"

func TestConversions(t *testing.T) {
	cases := []struct {
		in     string
		pascal string
		snake  string
		kebab  string
	}{
		{"user profile", "UserProfile", "user_profile", "user-profile"},
		{"UserProfile", "UserProfile", "user_profile", "user-profile"},
		{"user-profile", "UserProfile", "user_profile", "user-profile"},
		{"user__profile", "UserProfile", "user_profile", "user-profile"},
		{"  order  --  item ", "OrderItem", "order_item", "order-item"},
		{"HTTPServer", "HttpServer", "http_server", "http-server"},
		{"oauth2Token", "Oauth2Token", "oauth2_token", "oauth2-token"},
		{"a_b-c d", "Abcd", "abcd", "abcd"},
		{"order item 2", "OrderItem2", "order_item2", "order-item2"},
		{"x 1 y", "X1Y", "x1_y", "x1-y"},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		if got := Pascal(tc.in); got != tc.pascal {
			t.Fatalf("Pascal(%q) = %q, want %q", tc.in, got, tc.pascal)
		}
		if got := Snake(tc.in); got != tc.snake {
			t.Fatalf("Snake(%q) = %q, want %q", tc.in, got, tc.snake)
		}
		if got := Kebab(tc.in); got != tc.kebab {
			t.Fatalf("Kebab(%q) = %q, want %q", tc.in, got, tc.kebab)
		}
	}
}

func TestConversionsAreIdempotent(t *testing.T) {
	inputs := []string{"user profile", "HTTPServer", "a_b-c d", "Already_Snake", "x", "v 2 beta", "ab C d"}
	for _, in := range inputs {
		for name, fn := range map[string]func(string) string{
			"pascal": Pascal,
			"snake":  Snake,
			"kebab":  Kebab,
			"camel":  Camel,
		} {
			once := fn(in)
			if twice := fn(once); twice != once {
				t.Fatalf("%s not idempotent for %q: %q then %q", name, in, once, twice)
			}
		}
	}
}

func TestPascalRoundTrip(t *testing.T) {
	inputs := []string{
		"invoice",
		"order item",
		"order-item",
		"order_item",
		"order_item-line  total",
		"OrderItem",
		"HTTPServer",
		"a_b-c d",
		"a bc d",
		"AB c",
		"x 1 y",
		"2 fast",
		"a c1",
		"order 2",
		"Ünïcode wörd",
	}
	for _, in := range inputs {
		pascal := Pascal(in)
		if got, want := Snake(pascal), Snake(in); got != want {
			t.Fatalf("Snake(Pascal(%q)) = %q, want %q", in, got, want)
		}
		if got, want := Kebab(pascal), Kebab(in); got != want {
			t.Fatalf("Kebab(Pascal(%q)) = %q, want %q", in, got, want)
		}
	}
}

func TestFormsOf(t *testing.T) {
	f := FormsOf("order item")
	if f.Camel != "orderItem" || f.Title != "Order Item" || f.Pascal != "OrderItem" {
		t.Fatalf("unexpected forms: %+v", f)
	}
}
