package fileresp

import "testing"

func TestParseRangeSuffix(t *testing.T) {
	ranges, unsatisfiable := ParseRange("bytes=-3", 10)
	if unsatisfiable {
		t.Fatal("unexpected unsatisfiable")
	}
	if len(ranges) != 1 || ranges[0] != (ByteRange{Start: 7, End: 9}) {
		t.Fatalf("ranges = %+v", ranges)
	}
}

func TestParseRangeOpenEnded(t *testing.T) {
	ranges, _ := ParseRange("bytes=5-", 10)
	if len(ranges) != 1 || ranges[0] != (ByteRange{Start: 5, End: 9}) {
		t.Fatalf("ranges = %+v", ranges)
	}
}

func TestParseRangeClampsEnd(t *testing.T) {
	ranges, _ := ParseRange("bytes=0-1000", 10)
	if len(ranges) != 1 || ranges[0] != (ByteRange{Start: 0, End: 9}) {
		t.Fatalf("ranges = %+v", ranges)
	}
}

func TestParseRangeUnsatisfiable(t *testing.T) {
	_, unsatisfiable := ParseRange("bytes=50-60", 10)
	if !unsatisfiable {
		t.Fatal("expected unsatisfiable")
	}
}

func TestParseRangeMalformedIgnored(t *testing.T) {
	ranges, unsatisfiable := ParseRange("bytes=abc", 10)
	if ranges != nil || unsatisfiable {
		t.Fatalf("malformed range should be ignored entirely, got ranges=%+v unsatisfiable=%v", ranges, unsatisfiable)
	}
}

func TestParseRangeNoHeader(t *testing.T) {
	ranges, unsatisfiable := ParseRange("", 10)
	if ranges != nil || unsatisfiable {
		t.Fatal("empty header should mean no range handling")
	}
}
