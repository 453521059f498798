package snapshot_test

import (
	"testing"

	"github.com/anjaustin/autolvmb/pkg/snapshot"
)

func TestComputeSize(t *testing.T) {
	for _, tc := range []struct {
		name     string
		originMB float64
		fraction float64
		want     int64
		wantErr  bool
	}{
		{name: "default fraction", originMB: 1000, fraction: 0.025, want: 25},
		{name: "truncates, never rounds up", originMB: 999, fraction: 0.025, want: 24},
		{name: "full size", originMB: 512, fraction: 1, want: 512},
		{name: "zero origin", originMB: 0, fraction: 0.025, wantErr: true},
		{name: "negative origin", originMB: -10, fraction: 0.025, wantErr: true},
		{name: "zero fraction", originMB: 1000, fraction: 0, wantErr: true},
		{name: "fraction above one", originMB: 1000, fraction: 1.5, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := snapshot.ComputeSize(tc.originMB, tc.fraction)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got size %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}
