package snapshot

import (
	"sort"

	"github.com/anjaustin/autolvmb/pkg/lvm"
)

// Eligible returns the group's removable snapshots ordered oldest first:
// every volume with the snapshot flag set that is not currently open. The
// origin never carries the snapshot flag and so can never appear here.
func Eligible(group lvm.VolumeGroup) []lvm.LogicalVolume {
	var result []lvm.LogicalVolume
	for _, lv := range group.Volumes {
		if !lv.IsSnapshot() || lv.IsOpen() {
			continue
		}
		result = append(result, lv)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// SelectOldest returns the single oldest snapshot in the group that is
// safe to remove, or false when there is no candidate.
//
// The scan considers only snapshot-flagged volumes, so the origin is never
// a candidate. If the computed oldest snapshot is currently open the
// result is "no candidate" rather than the next-oldest: falling back
// would silently pick an unexpected target.
func SelectOldest(group lvm.VolumeGroup) (lvm.LogicalVolume, bool) {
	if len(group.Volumes) <= 1 {
		// Only the origin, or nothing at all.
		return lvm.LogicalVolume{}, false
	}

	var snapshots []lvm.LogicalVolume
	for _, lv := range group.Volumes {
		if !lv.IsSnapshot() {
			continue
		}
		snapshots = append(snapshots, lv)
	}
	if len(snapshots) == 0 {
		return lvm.LogicalVolume{}, false
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})

	oldest := snapshots[0]
	if oldest.IsOpen() {
		return lvm.LogicalVolume{}, false
	}
	return oldest, true
}
