package version

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := []string{"21", "21.0.5", "21.0.7+6", "21.0.7-ea", "21.0.7.0.7.6"}
	for _, s := range cases {
		t.Run(s, func(t *testing.T) {
			v, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse(%q): %v", s, err)
			}
			v2, err := Parse(v.String())
			if err != nil {
				t.Fatalf("re-parse %q: %v", v.String(), err)
			}
			if !v.Equal(v2) {
				t.Fatalf("round trip mismatch: %v != %v", v, v2)
			}
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, s := range []string{"", "abc", "21.x.5", "+5", "-ea"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) expected error", s)
		}
	}
}

func TestDragonwellSixComponents(t *testing.T) {
	v, err := Parse("21.0.7.0.7.6")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Main) != 6 {
		t.Fatalf("expected 6 components, got %d: %v", len(v.Main), v.Main)
	}
	v2, _ := Parse("21.0.7.0.7.5")
	if v.Compare(v2) <= 0 {
		t.Fatalf("expected %v > %v", v, v2)
	}
}

func TestCorrettoMissingLeadingZero(t *testing.T) {
	v, err := Parse("8.452.9.1")
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{8, 452, 9, 1}
	if len(v.Main) != len(want) {
		t.Fatalf("got %v want %v", v.Main, want)
	}
	for i := range want {
		if v.Main[i] != want[i] {
			t.Fatalf("got %v want %v", v.Main, want)
		}
	}
}

func TestLegacyJava8Forms(t *testing.T) {
	v1, err := Parse("1.8.0_452-b09")
	if err != nil {
		t.Fatal(err)
	}
	if v1.Main[0] != 8 || v1.Main[2] != 452 {
		t.Fatalf("unexpected parse of legacy form: %v", v1.Main)
	}
	v2, err := Parse("8u352")
	if err != nil {
		t.Fatal(err)
	}
	if v2.Main[0] != 8 || v2.Main[2] != 352 {
		t.Fatalf("unexpected parse of liberica form: %v", v2.Main)
	}
}

func TestPatternMatchesExtraComponents(t *testing.T) {
	p, err := ParsePattern("21")
	if err != nil {
		t.Fatal(err)
	}
	v, _ := Parse("21.0.5.11.1")
	if !p.Matches(v) {
		t.Fatalf("expected %v to match %v", p, v)
	}
	v2, _ := Parse("21.0.7+6")
	if !p.Matches(v2) {
		t.Fatalf("expected %v to match %v", p, v2)
	}
}

func TestPatternExactMatchOnly(t *testing.T) {
	p, err := ParsePattern("21.0.5.11.1")
	if err != nil {
		t.Fatal(err)
	}
	v, _ := Parse("21.0.5.11.1")
	if !p.Matches(v) {
		t.Fatalf("expected exact match")
	}
	v2, _ := Parse("21.0.5.11.2")
	if p.Matches(v2) {
		t.Fatalf("did not expect match: %v vs %v", p, v2)
	}
	v3, _ := Parse("21.0.5")
	if p.Matches(v3) {
		t.Fatalf("pattern with more components than concrete must not match: %v vs %v", p, v3)
	}
}

func TestIsLTS(t *testing.T) {
	for s, want := range map[string]bool{"17.0.5": true, "21": true, "19.0.2": false, "11.0.20": true, "8.452.9.1": true} {
		v, err := Parse(s)
		if err != nil {
			t.Fatal(err)
		}
		if got := v.IsLTS(); got != want {
			t.Fatalf("IsLTS(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestLatestPrefersGAOverEA(t *testing.T) {
	ga, _ := Parse("21.0.7")
	ea, _ := Parse("21.0.7-ea")
	got := Latest([]*Version{ea, ga}, true)
	if got != ga {
		t.Fatalf("expected GA to win, got %v", got)
	}
}

func TestParseRequest(t *testing.T) {
	r, err := ParseRequest("jre@temurin@21")
	if err != nil {
		t.Fatal(err)
	}
	if r.PackageType != Jre || r.Distribution != "temurin" {
		t.Fatalf("unexpected parse: %+v", r)
	}

	r2, err := ParseRequest("21")
	if err != nil {
		t.Fatal(err)
	}
	if r2.PackageType != Jdk || r2.Distribution != "" {
		t.Fatalf("unexpected parse: %+v", r2)
	}

	r3, err := ParseRequest("openj9@11")
	if err != nil {
		t.Fatal(err)
	}
	if r3.Distribution != "semeru" {
		t.Fatalf("expected alias normalisation, got %q", r3.Distribution)
	}
}

func TestCoordinateSlug(t *testing.T) {
	p, _ := ParsePattern("21.0.5")
	c := Coordinate{
		Distribution:   "temurin",
		VersionPattern: p,
		PackageType:    Jdk,
		OS:             "linux",
		Arch:           "x64",
		Libc:           "glibc",
	}
	slug := c.Slug()
	if slug != "temurin-21-0-5-jdk-linux-x64-glibc" {
		t.Fatalf("unexpected slug: %s", slug)
	}
}
