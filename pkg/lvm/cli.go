package lvm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const lvFields = "lv_name,vg_name,lv_attr,lv_size,lv_time,origin,lv_path"

// runner executes a backend command and returns its stdout. Split out so
// the report parsing can be tested without the lvm2 tools installed.
type runner interface {
	run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", diag, err)
	}
	return stdout.Bytes(), nil
}

// CLI is the Client implementation backed by the lvm2 command-line tools.
type CLI struct {
	run    runner
	logger log.FieldLogger
}

// NewCLI creates a Client that shells out to lvs, vgs, lvcreate and
// lvremove on the local host.
func NewCLI() *CLI {
	return &CLI{
		run: execRunner{},
		logger: log.WithFields(log.Fields{
			"component": "lvm-cli",
		}),
	}
}

// ListVolumes returns the current inventory of the named volume group.
func (c *CLI) ListVolumes(ctx context.Context, group string) (VolumeGroup, error) {
	vg, err := c.readGroup(ctx, group)
	if err != nil {
		return VolumeGroup{}, &QueryError{Op: "vgs", Target: group, Err: err}
	}

	out, err := c.run.run(ctx, "lvs", reportArgs(lvFields, group)...)
	if err != nil {
		return VolumeGroup{}, &QueryError{Op: "lvs", Target: group, Err: err}
	}
	vols, err := parseLVReport(out)
	if err != nil {
		return VolumeGroup{}, &QueryError{Op: "lvs", Target: group, Err: err}
	}
	vg.Volumes = vols
	return vg, nil
}

// GetVolume re-reads a single LV. Used to re-check the open flag right
// before a removal.
func (c *CLI) GetVolume(ctx context.Context, group, name string) (LogicalVolume, error) {
	target := group + "/" + name
	out, err := c.run.run(ctx, "lvs", reportArgs(lvFields, target)...)
	if err != nil {
		return LogicalVolume{}, &QueryError{Op: "lvs", Target: target, Err: err}
	}
	vols, err := parseLVReport(out)
	if err != nil {
		return LogicalVolume{}, &QueryError{Op: "lvs", Target: target, Err: err}
	}
	if len(vols) == 0 {
		return LogicalVolume{}, &QueryError{Op: "lvs", Target: target, Err: fmt.Errorf("no such volume")}
	}
	return vols[0], nil
}

// CreateSnapshot allocates a copy-on-write snapshot of the origin device.
func (c *CLI) CreateSnapshot(ctx context.Context, originPath, name string, sizeMB int64) error {
	c.logger.WithFields(log.Fields{
		"origin":        originPath,
		"snapshot-name": name,
		"size-mb":       sizeMB,
	}).Debug("running lvcreate")

	_, err := c.run.run(ctx, "lvcreate",
		"--snapshot",
		"--name", name,
		"--size", fmt.Sprintf("%dm", sizeMB),
		originPath,
	)
	return err
}

// RemoveVolume removes the LV at the given device path. The backend's own
// prompt is always suppressed; confirmation is this tool's job.
func (c *CLI) RemoveVolume(ctx context.Context, devicePath string, force bool) error {
	args := []string{"--yes"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, devicePath)

	c.logger.WithField("device", devicePath).Debug("running lvremove")
	_, err := c.run.run(ctx, "lvremove", args...)
	return err
}

// ListVolumeGroups returns all volume groups on the host, without their
// volume inventories. Informational only.
func (c *CLI) ListVolumeGroups(ctx context.Context) ([]VolumeGroup, error) {
	out, err := c.run.run(ctx, "vgs", reportArgs("vg_name,vg_size,vg_free")...)
	if err != nil {
		return nil, &QueryError{Op: "vgs", Target: "all", Err: err}
	}
	return parseVGReport(out)
}

func (c *CLI) readGroup(ctx context.Context, group string) (VolumeGroup, error) {
	out, err := c.run.run(ctx, "vgs", reportArgs("vg_name,vg_size,vg_free", group)...)
	if err != nil {
		return VolumeGroup{}, err
	}
	groups, err := parseVGReport(out)
	if err != nil {
		return VolumeGroup{}, err
	}
	if len(groups) == 0 {
		return VolumeGroup{}, fmt.Errorf("no such volume group")
	}
	return groups[0], nil
}

func reportArgs(fields string, target ...string) []string {
	args := []string{
		"--reportformat", "json",
		"--units", "m",
		"--nosuffix",
		"--options", fields,
	}
	return append(args, target...)
}

// lv_time as reported by lvm2, with and without a zone offset depending on
// the report settings.
var timeLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func parseMB(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
