package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/anjaustin/autolvmb/pkg/config"
	"github.com/anjaustin/autolvmb/pkg/confirm"
	"github.com/anjaustin/autolvmb/pkg/lvm"
	"github.com/anjaustin/autolvmb/pkg/snapshot"
)

var (
	completionTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "autolvmb_last_completion_timestamp_seconds",
		Help: "The timestamp of the last completion of an autolvmb run",
	})
)

func init() {
	prometheus.MustRegister(completionTime)
}

// Snapshotter is the interface for snapshotable and pruneable resources,
// i.e. a resource we can create a snapshot for and can prune the
// snapshots of
type Snapshotter interface {
	Snapshot(context.Context) error
	Prune(context.Context) error
}

var (
	// The standard logger: setupLogging configures it once and every
	// component's FieldLogger derives from it, so the log file sees the
	// whole decision log.
	logger = log.StandardLogger()

	configFile     = kingpin.Flag("config", "Path to YAML config file").String()
	vg             = kingpin.Flag("vg", "Volume group to operate on").String()
	origin         = kingpin.Flag("origin", "Origin logical volume to protect").String()
	logLevel       = kingpin.Flag("log-level", "Log level (debug, info, warn, error)").String()
	logFile        = kingpin.Flag("log-file", "Append log output to this file").String()
	pushgatewayURL = kingpin.Flag("pushgateway-url", "URL of Prometheus' pushgateway").String()
	unattended     = kingpin.Flag("unattended", "Never prompt, assume yes").Short('y').Bool()

	runCmd          = kingpin.Command("run", "Create a snapshot, then apply the retention policy")
	snapName        = runCmd.Flag("name", "Snapshot name (default: <origin>-<timestamp>)").String()
	sizeFraction    = runCmd.Flag("size-fraction", "Fraction of the origin size to allocate").Float64()
	usageThreshold  = runCmd.Flag("usage-threshold", "Used-space percentage that triggers removal of the oldest snapshot").Default("-1").Int()
	countThreshold  = runCmd.Flag("count-threshold", "Snapshot count that triggers batch cleanup").Int()
	batchSize       = runCmd.Flag("batch-size", "Snapshots removed per batch cleanup").Int()
	disableSnapshot = runCmd.Flag("disable-snapshot", "Disable snapshot creation").Default("false").Bool()
	disablePrune    = runCmd.Flag("disable-prune", "Disable pruning of old snapshots").Default("false").Bool()
	schedule        = runCmd.Flag("schedule", "Cron spec; keep running and repeat on this schedule").String()

	pruneCmd            = kingpin.Command("prune", "Apply the retention policy only")
	pruneUsageThreshold = pruneCmd.Flag("usage-threshold", "Used-space percentage that triggers removal of the oldest snapshot").Default("-1").Int()
	pruneCountThreshold = pruneCmd.Flag("count-threshold", "Snapshot count that triggers batch cleanup").Int()
	pruneBatchSize      = pruneCmd.Flag("batch-size", "Snapshots removed per batch cleanup").Int()

	listCmd = kingpin.Command("list", "List volume groups and their volumes")
)

func main() {
	cmd := kingpin.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			logger.Fatalf("config: %+v", err)
		}
	}
	applyFlags(&cfg, cmd)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %+v", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		logger.Fatalf("logging: %+v", err)
	}

	client := lvm.NewCLI()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch cmd {
	case "run":
		mgr := newManager(client, cfg)
		if cfg.Schedule != "" {
			runScheduled(ctx, mgr, cfg)
			return
		}
		if fatal := runOnce(ctx, mgr, *disableSnapshot, *disablePrune, cfg.PushgatewayURL); fatal {
			os.Exit(1)
		}
	case "prune":
		mgr := newManager(client, cfg)
		if fatal := runOnce(ctx, mgr, true, false, cfg.PushgatewayURL); fatal {
			os.Exit(1)
		}
	case "list":
		if err := listGroups(ctx, client); err != nil {
			logger.Fatalf("list: %+v", err)
		}
	default:
		logger.Fatalf("Invalid command %q", cmd)
	}
}

// applyFlags lays explicitly set flags over the file configuration. Flags
// always win.
func applyFlags(cfg *config.Config, cmd string) {
	if *vg != "" {
		cfg.VolumeGroup = *vg
	}
	if *origin != "" {
		cfg.Origin = *origin
	}
	if *snapName != "" {
		cfg.Name = *snapName
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}
	if *pushgatewayURL != "" {
		cfg.PushgatewayURL = *pushgatewayURL
	}
	if *unattended {
		cfg.Unattended = true
	}
	if *sizeFraction > 0 {
		cfg.SizeFraction = *sizeFraction
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}

	usage, count, batch := usageThreshold, countThreshold, batchSize
	if cmd == "prune" {
		usage, count, batch = pruneUsageThreshold, pruneCountThreshold, pruneBatchSize
	}
	if *usage >= 0 {
		cfg.UsageThreshold = *usage
	}
	if *count > 0 {
		cfg.CountThreshold = *count
	}
	if *batch > 0 {
		cfg.BatchSize = *batch
	}
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if cfg.File == "" {
		return nil
	}
	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

func newManager(client lvm.Client, cfg config.Config) *snapshot.SnapshotManager {
	opts := []snapshot.Opt{
		snapshot.WithSizeFraction(cfg.SizeFraction),
		snapshot.WithUsageThreshold(cfg.UsageThreshold),
		snapshot.WithCountThreshold(cfg.CountThreshold),
		snapshot.WithBatchSize(cfg.BatchSize),
		snapshot.WithConfirmer(gateFor(cfg)),
	}
	if cfg.Name != "" {
		opts = append(opts, snapshot.WithSnapshotName(cfg.Name))
	}
	return snapshot.NewSnapshotManager(client, cfg.VolumeGroup, cfg.Origin, opts...)
}

func gateFor(cfg config.Config) confirm.Confirmer {
	if cfg.Unattended {
		return confirm.Unattended{}
	}
	gate, err := confirm.NewInteractive()
	if err != nil {
		logger.Fatalf("confirm: %+v", err)
	}
	return gate
}

// runOnce performs one create-then-prune cycle. A failed creation makes
// the run fatal, but the retention phase still runs on current inventory:
// eviction safety does not depend on the new snapshot's existence.
func runOnce(ctx context.Context, s Snapshotter, disableSnapshot, disablePrune bool, pushURL string) (fatal bool) {
	if !disableSnapshot {
		logger.Infof("Trying to snapshot")
		if err := s.Snapshot(ctx); err != nil {
			logger.Error(err)
			fatal = true
		}
	}
	if !disablePrune {
		logger.Infof("Trying to Prune")
		if err := s.Prune(ctx); err != nil {
			logger.Error(err)
			fatal = true
		}
	}

	if pushURL != "" {
		completionTime.SetToCurrentTime()
		if err := push.New(pushURL, "autolvmb").
			Gatherer(prometheus.DefaultGatherer).
			Add(); err != nil {
			logger.Errorf("cannot push metrics to pushgateway at %s: %+v", pushURL, err)
		}
	}
	return fatal
}

// runScheduled repeats the cycle on a cron schedule. SkipIfStillRunning
// serializes invocations: two runs must never race on the same inventory.
func runScheduled(ctx context.Context, mgr *snapshot.SnapshotManager, cfg config.Config) {
	if !cfg.Unattended {
		logger.Fatal("schedule mode requires --unattended")
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
	))
	if _, err := c.AddFunc(cfg.Schedule, func() {
		runOnce(ctx, mgr, false, false, cfg.PushgatewayURL)
	}); err != nil {
		logger.Fatalf("invalid schedule %q: %+v", cfg.Schedule, err)
	}

	logger.Infof("Running on schedule %q", cfg.Schedule)
	c.Start()
	awaitShutdown(ctx)

	// Stop() lets an in-flight cycle finish before its context is done.
	<-c.Stop().Done()
	logger.Info("Schedule stopped")
}

// awaitShutdown blocks until a termination signal arrives or ctx is
// cancelled.
func awaitShutdown(ctx context.Context) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	waitShutdown(ctx, sig)
}

func waitShutdown(ctx context.Context, sig <-chan os.Signal) {
	select {
	case s := <-sig:
		logger.Infof("Received %s, shutting down", s)
	case <-ctx.Done():
	}
}

func listGroups(ctx context.Context, client lvm.Client) error {
	groups, err := client.ListVolumeGroups(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VG\tLV\tATTR\tSIZE(MB)\tCREATED\tORIGIN")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t\t\t%.0f\t\t\n", g.Name, g.SizeMB)
		inv, err := client.ListVolumes(ctx, g.Name)
		if err != nil {
			return err
		}
		for _, lv := range inv.Volumes {
			created := ""
			if !lv.CreatedAt.IsZero() {
				created = lv.CreatedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\t%s\n",
				g.Name, lv.Name, lv.Attr, lv.SizeMB, created, lv.Origin)
		}
	}
	return w.Flush()
}
