package catalog

import "testing"

func TestMakeSKU(t *testing.T) {
	cases := []struct {
		sizeOz int32
		scent  string
		want   string
	}{
		{8, "Lavender Fields", "CDL-8-LAVENDER-FIELDS"},
		{12, "cedar & sage", "CDL-12-CEDAR-SAGE"},
		{4, "Vanilla", "CDL-4-VANILLA"},
		{8, "  boot leather  ", "CDL-8-BOOT-LEATHER"},
	}
	for _, c := range cases {
		got, err := MakeSKU(c.sizeOz, c.scent)
		if err != nil {
			t.Fatalf("MakeSKU(%d, %q): %v", c.sizeOz, c.scent, err)
		}
		if got != c.want {
			t.Fatalf("MakeSKU(%d, %q) = %q, want %q", c.sizeOz, c.scent, got, c.want)
		}
	}
}

func TestMakeSKURejectsBadInput(t *testing.T) {
	if _, err := MakeSKU(0, "Lavender"); err == nil {
		t.Fatal("expected error for zero size")
	}
	if _, err := MakeSKU(8, "   "); err == nil {
		t.Fatal("expected error for blank scent")
	}
	if _, err := MakeSKU(8, "&&&"); err == nil {
		t.Fatal("expected error for symbol-only scent")
	}
}

func TestParseSKURoundTrip(t *testing.T) {
	sku, err := MakeSKU(8, "Lavender Fields")
	if err != nil {
		t.Fatal(err)
	}
	size, code, err := ParseSKU(sku)
	if err != nil {
		t.Fatal(err)
	}
	if size != 8 || code != "LAVENDER-FIELDS" {
		t.Fatalf("got %d %q", size, code)
	}
}

func TestParseSKURejectsMalformed(t *testing.T) {
	for _, sku := range []string{"", "CDL", "CDL-8", "XYZ-8-LAVENDER", "CDL-0-LAVENDER", "CDL-x-LAVENDER", "CDL-8-lavender"} {
		if _, _, err := ParseSKU(sku); err == nil {
			t.Fatalf("expected error for %q", sku)
		}
	}
}
