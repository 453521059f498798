package snapshot

import "fmt"

// DefaultSizeFraction is the fraction of the origin's size allocated to a
// new copy-on-write snapshot.
const DefaultSizeFraction = 0.025

// ComputeSize returns the capacity in MB to allocate for a snapshot of an
// origin of the given size. The result is truncated to whole megabytes,
// never rounded up, so the allocation cannot exceed fraction of the
// origin.
func ComputeSize(originSizeMB float64, fraction float64) (int64, error) {
	if originSizeMB <= 0 {
		return 0, fmt.Errorf("invalid origin size %vMB", originSizeMB)
	}
	if fraction <= 0 || fraction > 1 {
		return 0, fmt.Errorf("size fraction %v out of range (0,1]", fraction)
	}
	return int64(originSizeMB * fraction), nil
}
