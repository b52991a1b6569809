package congress

import "testing"

func TestChamberFromBillType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		billType string
		want     Chamber
		suffix   string
	}{
		{billType: "hr", want: ChamberHouse, suffix: "h"},
		{billType: "HRES", want: ChamberHouse, suffix: "h"},
		{billType: "s", want: ChamberSenate, suffix: "s"},
		{billType: "sres", want: ChamberSenate, suffix: "s"},
		{billType: "hjres", want: ChamberJoint},
		{billType: "sjres", want: ChamberJoint},
		{billType: "hconres", want: ChamberJoint},
		{billType: " sconres ", want: ChamberJoint},
		{billType: "amendment", want: ChamberUnknown},
		{billType: "", want: ChamberUnknown},
	}

	for _, tc := range tests {
		got := ChamberFromBillType(tc.billType)
		if got != tc.want {
			t.Fatalf("ChamberFromBillType(%q) = %s, want %s", tc.billType, got, tc.want)
		}
		if got.DocumentSuffix() != tc.suffix {
			t.Fatalf("DocumentSuffix for %q = %q, want %q", tc.billType, got.DocumentSuffix(), tc.suffix)
		}
	}
}

func TestChamberFromName(t *testing.T) {
	t.Parallel()

	if got := ChamberFromName("Senate"); got != ChamberSenate {
		t.Fatalf("unexpected chamber: %s", got)
	}
	if got := ChamberFromName("house").PathSegment(); got != "house" {
		t.Fatalf("unexpected path segment: %q", got)
	}
	if got := ChamberFromName("both"); got != ChamberUnknown {
		t.Fatalf("unexpected chamber for both: %s", got)
	}
}
