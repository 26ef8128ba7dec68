package headers

import "testing"

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"index.html":  "text/html; charset=utf-8",
		"app.js":      "application/javascript",
		"data.json":   "application/json",
		"photo.png":   "image/png",
		"font.woff2":  "font/woff2",
		"unknown.xyz": "application/octet-stream",
		"README":      "application/octet-stream",
	}
	for name, want := range cases {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
