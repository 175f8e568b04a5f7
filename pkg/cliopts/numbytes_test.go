package cliopts

import "testing"

func TestParseNumBytes(t *testing.T) {
	cases := map[string]NumBytes{
		"0":    0,
		"512":  512,
		"1K":   1024,
		"64k":  64 * 1024,
		"256M": 256 * 1024 * 1024,
		"1G":   1024 * 1024 * 1024,
	}
	for in, want := range cases {
		got, err := ParseNumBytes(in)
		if err != nil {
			t.Errorf("ParseNumBytes(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseNumBytes(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseNumBytesInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.5K", "-5"} {
		if _, err := ParseNumBytes(in); err == nil {
			t.Errorf("ParseNumBytes(%q) should have failed", in)
		}
	}
}

func TestNumBytesString(t *testing.T) {
	cases := map[NumBytes]string{
		0:                  "0",
		512:                "512",
		1024:               "1K",
		256 * 1024 * 1024:  "256M",
		1024 * 1024 * 1024: "1G",
	}
	for in, want := range cases {
		if got := in.String(); got != want {
			t.Errorf("NumBytes(%d).String() = %q, want %q", in, got, want)
		}
	}
}

func TestParseTiming(t *testing.T) {
	cases := map[string]int64{
		"never": -1,
		"30s":   30,
		"5m":    300,
		"1h":    3600,
	}
	for in, want := range cases {
		got, err := ParseTiming(in)
		if err != nil {
			t.Errorf("ParseTiming(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseTiming(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseTimingInvalid(t *testing.T) {
	for _, in := range []string{"", "5", "5x", "abc"} {
		if _, err := ParseTiming(in); err == nil {
			t.Errorf("ParseTiming(%q) should have failed", in)
		}
	}
}
