package reliability

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/database"
	"github.com/woodid012/renew-asset-platform-sub004/internal/events"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/snapshots"
)

// DailyMaintenanceJob keeps the databases healthy: integrity checks, WAL
// checkpoints, snapshot retention, and a disk space guard. Runs nightly.
type DailyMaintenanceJob struct {
	databases     []*database.DB
	snapshotStore *snapshots.Store
	snapshotKeep  int
	dataDir       string
	log           zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(
	databases []*database.DB,
	snapshotStore *snapshots.Store,
	snapshotKeep int,
	dataDir string,
	log zerolog.Logger,
) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases:     databases,
		snapshotStore: snapshotStore,
		snapshotKeep:  snapshotKeep,
		dataDir:       dataDir,
		log:           log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Integrity check every database. A corrupt database halts the job
	// loudly instead of letting a broken book serve results.
	for _, db := range j.databases {
		j.log.Debug().Str("database", db.Name()).Msg("Running integrity check")
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Integrity check failed")
			return fmt.Errorf("integrity check failed for %s: %w", db.Name(), err)
		}
	}

	// WAL checkpoint to keep the journals from growing unbounded
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	// Trim old run snapshots
	if j.snapshotStore != nil && j.snapshotKeep > 0 {
		if _, err := j.snapshotStore.Prune(j.snapshotKeep); err != nil {
			j.log.Warn().Err(err).Msg("Snapshot prune failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed")
	return nil
}

// checkDiskSpace verifies sufficient disk space is available
func (j *DailyMaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(j.dataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(stat.Bavail*uint64(stat.Bsize)) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < 0.5 {
		return fmt.Errorf("only %.2f GB free, refusing to continue", availableGB)
	}
	if availableGB < 5.0 {
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}
	return nil
}

// WeeklyMaintenanceJob reclaims space with VACUUM. Only the cache database
// churns enough to need it; the portfolio and price books barely grow.
type WeeklyMaintenanceJob struct {
	cacheDB *database.DB
	log     zerolog.Logger
}

// NewWeeklyMaintenanceJob creates a new weekly maintenance job
func NewWeeklyMaintenanceJob(cacheDB *database.DB, log zerolog.Logger) *WeeklyMaintenanceJob {
	return &WeeklyMaintenanceJob{
		cacheDB: cacheDB,
		log:     log.With().Str("job", "weekly_maintenance").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *WeeklyMaintenanceJob) Name() string {
	return "weekly_maintenance"
}

// Run executes the weekly maintenance job
func (j *WeeklyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting weekly maintenance")
	startTime := time.Now()

	var pageCount, pageSize int
	j.cacheDB.Conn().QueryRow("PRAGMA page_count").Scan(&pageCount)
	j.cacheDB.Conn().QueryRow("PRAGMA page_size").Scan(&pageSize)
	sizeBefore := float64(pageCount*pageSize) / 1024 / 1024

	if _, err := j.cacheDB.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	j.cacheDB.Conn().QueryRow("PRAGMA page_count").Scan(&pageCount)
	sizeAfter := float64(pageCount*pageSize) / 1024 / 1024

	j.log.Info().
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Weekly maintenance completed")
	return nil
}

// BackupJob runs the nightly cloud backup and rotation.
type BackupJob struct {
	backups     *BackupService
	retainCount int
	hub         *events.Hub
	log         zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(backups *BackupService, retainCount int, hub *events.Hub, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:     backups,
		retainCount: retainCount,
		hub:         hub,
		log:         log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	archive, err := j.backups.CreateAndUploadBackup(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	if err := j.backups.RotateOldBackups(ctx, j.retainCount); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	if j.hub != nil {
		j.hub.Publish(&events.BackupCompletedData{Archive: archive})
	}
	return nil
}
