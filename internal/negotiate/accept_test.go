package negotiate

import (
	"reflect"
	"testing"
)

func TestParseAcceptEncodingOrdersByQ(t *testing.T) {
	got := ParseAcceptEncoding("gzip;q=0.5, br;q=0.9, deflate")
	want := []string{"deflate", "br", "gzip"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseAcceptEncodingExcludesZeroQ(t *testing.T) {
	got := ParseAcceptEncoding("gzip;q=0, br")
	want := []string{"br"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseAcceptEncodingEmpty(t *testing.T) {
	if got := ParseAcceptEncoding(""); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestAccepts(t *testing.T) {
	prefs := []string{"br", "gzip"}
	if !accepts(prefs, "gzip") {
		t.Fatal("expected gzip to be accepted")
	}
	if accepts(prefs, "zstd") {
		t.Fatal("expected zstd not to be accepted")
	}
	if !accepts([]string{"*"}, "zstd") {
		t.Fatal("wildcard should accept anything")
	}
}
