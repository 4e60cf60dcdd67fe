package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello-world"},
		{"  Building a Go API  ", "building-a-go-api"},
		{"C++ & Rust: a comparison", "c-rust-a-comparison"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"", ""},
		{"Ünïcode Títle", "n-code-t-tle"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"Hello, World!", "Series: Part 2", "x", ""}
	for _, in := range inputs {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Fatalf("Slugify not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}
