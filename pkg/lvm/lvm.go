// Package lvm talks to the LVM2 userspace tools and exposes the volume
// inventory the snapshot manager operates on.
package lvm

import (
	"context"
	"fmt"
	"time"
)

// LogicalVolume is an immutable view of a single LV at query time. It is
// never cached across backend mutations; callers re-read before any
// decision that depends on current state.
type LogicalVolume struct {
	Name      string
	VGName    string
	Path      string
	Attr      string
	SizeMB    float64
	Origin    string // origin LV name, set only for snapshots
	CreatedAt time.Time
}

// IsSnapshot reports whether the LV is a snapshot volume. The first
// character of lv_attr is 's' for a snapshot and 'S' for an invalid one;
// both count, an invalid snapshot is still a snapshot object.
func (lv LogicalVolume) IsSnapshot() bool {
	return len(lv.Attr) > 0 && (lv.Attr[0] == 's' || lv.Attr[0] == 'S')
}

// IsActive reports whether the LV is active (lv_attr state field).
func (lv LogicalVolume) IsActive() bool {
	return len(lv.Attr) > 4 && lv.Attr[4] == 'a'
}

// IsOpen reports whether the LV device is currently open, i.e. mounted or
// otherwise referenced.
func (lv LogicalVolume) IsOpen() bool {
	return len(lv.Attr) > 5 && lv.Attr[5] == 'o'
}

// VolumeGroup is the inventory of one VG at query time.
type VolumeGroup struct {
	Name    string
	SizeMB  float64
	FreeMB  float64
	Volumes []LogicalVolume
}

// UsedPercent returns the used fraction of the group as a truncated
// integer percentage.
func (vg VolumeGroup) UsedPercent() int {
	if vg.SizeMB <= 0 {
		return 0
	}
	return int(100 * (vg.SizeMB - vg.FreeMB) / vg.SizeMB)
}

// Client is the interface to the volume-management backend. All calls
// block; callers needing bounded latency cancel via ctx.
type Client interface {
	ListVolumes(ctx context.Context, group string) (VolumeGroup, error)
	GetVolume(ctx context.Context, group, name string) (LogicalVolume, error)
	CreateSnapshot(ctx context.Context, originPath, name string, sizeMB int64) error
	RemoveVolume(ctx context.Context, devicePath string, force bool) error
	ListVolumeGroups(ctx context.Context) ([]VolumeGroup, error)
}

// QueryError wraps a failed inventory or size read with the operation and
// target it was issued for.
type QueryError struct {
	Op     string
	Target string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("lvm %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
