package lvm

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const lvsReport = `{
  "report": [
    {
      "lv": [
        {"lv_name":"root", "vg_name":"vg0", "lv_attr":"owi-aos---", "lv_size":"10240.00", "lv_path":"/dev/vg0/root", "lv_time":"2026-03-01 10:00:00 +0000", "origin":""},
        {"lv_name":"root-20260301-110000", "vg_name":"vg0", "lv_attr":"swi-a-s---", "lv_size":"256.00", "lv_path":"/dev/vg0/root-20260301-110000", "lv_time":"2026-03-01 11:00:00 +0000", "origin":"root"},
        {"lv_name":"root-20260301-120000", "vg_name":"vg0", "lv_attr":"swi-aos---", "lv_size":"256.00", "lv_path":"/dev/vg0/root-20260301-120000", "lv_time":"2026-03-01 12:00:00 +0000", "origin":"root"}
      ]
    }
  ]
}`

const vgsReport = `{
  "report": [
    {
      "vg": [
        {"vg_name":"vg0", "vg_size":"20480.00", "vg_free":"5120.00"}
      ]
    }
  ]
}`

func TestParseLVReport(t *testing.T) {
	got, err := parseLVReport([]byte(lvsReport))
	if err != nil {
		t.Fatalf("parseLVReport: %+v", err)
	}

	want := []LogicalVolume{
		{
			Name:      "root",
			VGName:    "vg0",
			Attr:      "owi-aos---",
			SizeMB:    10240,
			Path:      "/dev/vg0/root",
			CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			Name:      "root-20260301-110000",
			VGName:    "vg0",
			Attr:      "swi-a-s---",
			SizeMB:    256,
			Path:      "/dev/vg0/root-20260301-110000",
			Origin:    "root",
			CreatedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			Name:      "root-20260301-120000",
			VGName:    "vg0",
			Attr:      "swi-aos---",
			SizeMB:    256,
			Path:      "/dev/vg0/root-20260301-120000",
			Origin:    "root",
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLVReportTimeWithoutZone(t *testing.T) {
	report := `{"report":[{"lv":[{"lv_name":"a","vg_name":"vg0","lv_attr":"swi-a-s---","lv_size":"1.00","lv_time":"2026-03-01 11:00:00","origin":"root","lv_path":"/dev/vg0/a"}]}]}`
	got, err := parseLVReport([]byte(report))
	if err != nil {
		t.Fatalf("parseLVReport: %+v", err)
	}
	want := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	if !got[0].CreatedAt.Equal(want) {
		t.Errorf("got %v, want %v", got[0].CreatedAt, want)
	}
}

func TestParseLVReportBadSize(t *testing.T) {
	report := `{"report":[{"lv":[{"lv_name":"a","vg_name":"vg0","lv_attr":"swi-a-s---","lv_size":"oops","lv_time":"","origin":"","lv_path":""}]}]}`
	if _, err := parseLVReport([]byte(report)); err == nil {
		t.Fatal("expected error for unparseable lv_size")
	}
}

func TestParseVGReport(t *testing.T) {
	got, err := parseVGReport([]byte(vgsReport))
	if err != nil {
		t.Fatalf("parseVGReport: %+v", err)
	}
	want := []VolumeGroup{{Name: "vg0", SizeMB: 20480, FreeMB: 5120}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestAttrPredicates(t *testing.T) {
	for _, tc := range []struct {
		attr                   string
		snapshot, open, active bool
	}{
		{attr: "owi-aos---", snapshot: false, open: true, active: true},
		{attr: "swi-a-s---", snapshot: true, open: false, active: true},
		{attr: "swi-aos---", snapshot: true, open: true, active: true},
		{attr: "Swi-a-s---", snapshot: true, open: false, active: true},
		{attr: "-wi-ao----", snapshot: false, open: true, active: true},
		{attr: "", snapshot: false, open: false, active: false},
	} {
		lv := LogicalVolume{Attr: tc.attr}
		if got := lv.IsSnapshot(); got != tc.snapshot {
			t.Errorf("IsSnapshot(%q) = %t, want %t", tc.attr, got, tc.snapshot)
		}
		if got := lv.IsOpen(); got != tc.open {
			t.Errorf("IsOpen(%q) = %t, want %t", tc.attr, got, tc.open)
		}
		if got := lv.IsActive(); got != tc.active {
			t.Errorf("IsActive(%q) = %t, want %t", tc.attr, got, tc.active)
		}
	}
}

func TestUsedPercentTruncates(t *testing.T) {
	for _, tc := range []struct {
		size, free float64
		want       int
	}{
		{size: 20480, free: 5120, want: 75},
		{size: 10240, free: 8192, want: 20},
		{size: 1000, free: 1, want: 99},  // 99.9 truncates down
		{size: 1000, free: 999, want: 0}, // 0.1 truncates down
		{size: 0, free: 0, want: 0},
	} {
		vg := VolumeGroup{SizeMB: tc.size, FreeMB: tc.free}
		if got := vg.UsedPercent(); got != tc.want {
			t.Errorf("UsedPercent(size=%v free=%v) = %d, want %d", tc.size, tc.free, got, tc.want)
		}
	}
}
