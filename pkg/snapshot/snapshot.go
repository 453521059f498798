// Package snapshot implements the snapshot lifecycle core: sizing and
// creating time-stamped snapshots of an origin volume and retiring the
// oldest ones when count or disk-usage thresholds are exceeded.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/anjaustin/autolvmb/pkg/confirm"
	"github.com/anjaustin/autolvmb/pkg/lvm"
)

const (
	defaultUsageThreshold = 70
	defaultCountThreshold = 34
	defaultBatchSize      = 10

	snapshotTimeFormat = "20060102-150405"
)

var (
	snapshotsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autolvmb_snapshots_created_total",
		Help: "Number of snapshots created",
	})
	snapshotsRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autolvmb_snapshots_removed_total",
		Help: "Number of snapshots removed by the retention policy",
	})
	removalFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autolvmb_snapshot_removal_failures_total",
		Help: "Number of snapshot removals that failed",
	})
	usedPercentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autolvmb_vg_used_percent",
		Help: "Used capacity of the volume group at the last retention evaluation",
	})
)

func init() {
	prometheus.MustRegister(snapshotsCreated, snapshotsRemoved, removalFailures, usedPercentGauge)
}

// SnapshotManager manages the snapshot creation and retention of one
// origin volume inside one volume group.
type SnapshotManager struct {
	client lvm.Client
	group  string
	origin string

	nameOverride string
	sizeFraction float64

	usageThreshold int
	countThreshold int
	batchSize      int

	gate confirm.Confirmer
	now  func() time.Time

	logger log.FieldLogger
}

// Opt is the type for options of the SnapshotManager
type Opt func(*SnapshotManager)

// WithSizeFraction sets the fraction of the origin size allocated to a new
// snapshot
func WithSizeFraction(f float64) Opt {
	return func(m *SnapshotManager) {
		m.sizeFraction = f
	}
}

// WithSnapshotName overrides the time-stamped snapshot name
func WithSnapshotName(name string) Opt {
	return func(m *SnapshotManager) {
		m.nameOverride = name
	}
}

// WithUsageThreshold sets the used-space percentage at which the oldest
// snapshot is removed
func WithUsageThreshold(pct int) Opt {
	return func(m *SnapshotManager) {
		m.usageThreshold = pct
	}
}

// WithCountThreshold sets the snapshot count at which batch cleanup kicks
// in
func WithCountThreshold(n int) Opt {
	return func(m *SnapshotManager) {
		m.countThreshold = n
	}
}

// WithBatchSize sets how many snapshots one batch cleanup removes
func WithBatchSize(n int) Opt {
	return func(m *SnapshotManager) {
		m.batchSize = n
	}
}

// WithConfirmer sets the gate consulted before any destructive action
func WithConfirmer(c confirm.Confirmer) Opt {
	return func(m *SnapshotManager) {
		m.gate = c
	}
}

// WithClock overrides the time source used for snapshot names
func WithClock(now func() time.Time) Opt {
	return func(m *SnapshotManager) {
		m.now = now
	}
}

// NewSnapshotManager creates a new SnapshotManager for the given volume
// group and origin LV
func NewSnapshotManager(client lvm.Client, group, origin string, opts ...Opt) *SnapshotManager {
	smgr := &SnapshotManager{
		client: client,
		group:  group,
		origin: origin,

		sizeFraction:   DefaultSizeFraction,
		usageThreshold: defaultUsageThreshold,
		countThreshold: defaultCountThreshold,
		batchSize:      defaultBatchSize,

		gate: confirm.Unattended{},
		now:  time.Now,

		// Derived from the standard logger so the configured level and
		// log-file output apply to the decision log too.
		logger: log.WithFields(
			log.Fields{
				"component": "snapshot-manager",
				"vg":        group,
				"origin":    origin,
			}),
	}

	for _, o := range opts {
		o(smgr)
	}

	return smgr
}

// Request is the single snapshot to create in this run, built from a
// fresh inventory read and consumed by the create call.
type Request struct {
	Name       string
	SizeMB     int64
	OriginPath string
}

// Snapshot creates one time-stamped snapshot of the origin volume. A
// declined confirmation skips the creation and is not an error; every
// backend failure is.
func (smgr *SnapshotManager) Snapshot(ctx context.Context) error {
	vg, err := smgr.client.ListVolumes(ctx, smgr.group)
	if err != nil {
		return err
	}

	origin, ok := findVolume(vg, smgr.origin)
	if !ok {
		return &lvm.QueryError{
			Op:     "lookup",
			Target: smgr.group + "/" + smgr.origin,
			Err:    fmt.Errorf("origin volume not found"),
		}
	}

	req, err := smgr.buildRequest(vg, origin)
	if err != nil {
		return err
	}

	logger := smgr.logger.WithFields(log.Fields{
		"snapshot-name": req.Name,
		"size-mb":       req.SizeMB,
	})

	proceed, err := smgr.gate.Confirm(fmt.Sprintf("Create snapshot %s of %s (%d MB)?", req.Name, req.OriginPath, req.SizeMB))
	if err != nil {
		return err
	}
	if !proceed {
		logger.Info("Snapshot creation declined, skipping")
		return nil
	}

	logger.Infof("Creating snapshot with name %s", req.Name)
	if err := smgr.client.CreateSnapshot(ctx, req.OriginPath, req.Name, req.SizeMB); err != nil {
		return &CreationError{
			Name:         req.Name,
			NameConflict: isNameConflict(err),
			Err:          err,
		}
	}
	snapshotsCreated.Inc()
	return nil
}

func (smgr *SnapshotManager) buildRequest(vg lvm.VolumeGroup, origin lvm.LogicalVolume) (Request, error) {
	sizeMB, err := ComputeSize(origin.SizeMB, smgr.sizeFraction)
	if err != nil {
		return Request{}, err
	}

	name := smgr.nameOverride
	if name == "" {
		name = fmt.Sprintf("%s-%s", smgr.origin, smgr.now().UTC().Format(snapshotTimeFormat))
	}
	// The backend enforces uniqueness too, but a collision visible in the
	// inventory should not get as far as lvcreate.
	if _, exists := findVolume(vg, name); exists {
		return Request{}, &CreationError{
			Name:         name,
			NameConflict: true,
			Err:          fmt.Errorf("volume %s already exists in group %s", name, vg.Name),
		}
	}

	return Request{Name: name, SizeMB: sizeMB, OriginPath: origin.Path}, nil
}

// Prune re-reads the volume group and applies the retention policy,
// removing the oldest snapshot under space pressure or a batch of the
// oldest under count pressure. Individual removal failures are logged and
// do not stop the remaining batch members.
func (smgr *SnapshotManager) Prune(ctx context.Context) error {
	vg, err := smgr.client.ListVolumes(ctx, smgr.group)
	if err != nil {
		return err
	}

	used := vg.UsedPercent()
	usedPercentGauge.Set(float64(used))

	decision := Decide(vg, used, smgr.usageThreshold, smgr.countThreshold, smgr.batchSize)

	logger := smgr.logger.WithFields(log.Fields{
		"used-percent": used,
		"decision":     decision.Action.String(),
	})

	if decision.Action == NoAction {
		logger.Info("No snapshot eligible for removal")
		return nil
	}
	logger.Infof("Removing %d snapshot(s)", len(decision.Targets))

	for _, target := range decision.Targets {
		if err := smgr.removeOne(ctx, target); err != nil {
			removalFailures.Inc()
			logger.Error(err)
		}
	}
	return nil
}

// removeOne re-checks the candidate's open flag at removal time: a
// snapshot can transition to in-use between batch selection and removal.
func (smgr *SnapshotManager) removeOne(ctx context.Context, target lvm.LogicalVolume) error {
	logger := smgr.logger.WithField("snapshot", target.Name)

	current, err := smgr.client.GetVolume(ctx, smgr.group, target.Name)
	if err != nil {
		return &RemovalError{Target: target.Name, Err: err}
	}
	if current.IsOpen() {
		logger.Warn("Snapshot is now in use, skipping removal")
		return nil
	}

	proceed, err := smgr.gate.Confirm(fmt.Sprintf("Remove snapshot %s?", target.Path))
	if err != nil {
		return &RemovalError{Target: target.Name, Err: err}
	}
	if !proceed {
		logger.Info("Removal declined, skipping")
		return nil
	}

	logger.Infof("Deleting snapshot %s", target.Name)
	if err := smgr.client.RemoveVolume(ctx, target.Path, false); err != nil {
		return &RemovalError{Target: target.Name, Err: err}
	}
	snapshotsRemoved.Inc()
	return nil
}

func findVolume(vg lvm.VolumeGroup, name string) (lvm.LogicalVolume, bool) {
	for _, lv := range vg.Volumes {
		if lv.Name == name {
			return lv, true
		}
	}
	return lvm.LogicalVolume{}, false
}
