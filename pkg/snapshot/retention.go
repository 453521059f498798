package snapshot

import "github.com/anjaustin/autolvmb/pkg/lvm"

// Action is the kind of retention decision taken for a volume group.
type Action int

const (
	// NoAction means nothing is removed: either no eligible snapshot
	// exists or neither threshold is exceeded.
	NoAction Action = iota
	// RemoveOne removes the single oldest eligible snapshot.
	RemoveOne
	// RemoveBatch removes the configured number of oldest eligible
	// snapshots in one decision.
	RemoveBatch
)

func (a Action) String() string {
	switch a {
	case RemoveOne:
		return "remove-one"
	case RemoveBatch:
		return "remove-batch"
	default:
		return "no-action"
	}
}

// Decision is the outcome of one retention evaluation. Targets is ordered
// oldest first and empty for NoAction. A Decision is acted on immediately
// against fresh backend state and then discarded.
type Decision struct {
	Action  Action
	Targets []lvm.LogicalVolume
}

// Decide evaluates the retention policy against one volume-group reading.
//
// The rules apply in fixed order, first match wins: count pressure before
// space pressure. Batch cleanup addresses unbounded snapshot accumulation
// regardless of current free space; letting the single-removal rule fire
// first would let the group oscillate just under the usage threshold while
// the count keeps climbing.
//
//  1. No eligible oldest snapshot: NoAction.
//  2. Eligible count >= countThreshold: RemoveBatch of the batchSize
//     oldest eligible snapshots.
//  3. usedPercent >= usageThreshold: RemoveOne (exact equality triggers).
//  4. Otherwise NoAction.
//
// Decide is a pure function of its inputs.
func Decide(group lvm.VolumeGroup, usedPercent, usageThreshold, countThreshold, batchSize int) Decision {
	oldest, ok := SelectOldest(group)
	if !ok {
		return Decision{Action: NoAction}
	}

	eligible := Eligible(group)
	if len(eligible) >= countThreshold {
		n := batchSize
		if n > len(eligible) {
			n = len(eligible)
		}
		return Decision{Action: RemoveBatch, Targets: eligible[:n]}
	}

	if usedPercent >= usageThreshold {
		return Decision{Action: RemoveOne, Targets: []lvm.LogicalVolume{oldest}}
	}

	return Decision{Action: NoAction}
}
