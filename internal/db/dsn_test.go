package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"url passthrough", "postgres://u:p@localhost:5432/app", "postgres://u:p@localhost:5432/app"},
		{"quoted url", `"postgresql://u:p@db/app"`, "postgresql://u:p@db/app"},
		{"kv adds sslmode", "host=localhost user=app dbname=app", "host=localhost user=app dbname=app sslmode=disable"},
		{"kv keeps sslmode", "host=x sslmode=require", "host=x sslmode=require"},
		{"kv collapses whitespace", "  host=x   user=y  ", "host=x user=y sslmode=disable"},
		{"empty", "", ""},
		{"opaque unchanged", "not a dsn", "not a dsn"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NormalizeDSN(c.in); got != c.want {
				t.Errorf("NormalizeDSN(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestMaskDSN(t *testing.T) {
	got := MaskDSN("host=localhost password=hunter2 dbname=app")
	if got != "host=localhost password=*** dbname=app" {
		t.Errorf("MaskDSN = %q", got)
	}
	if got := MaskDSN("postgres://u:p@db/app"); got != "postgres://u:p@db/app" {
		t.Errorf("url form should pass through, got %q", got)
	}
}
