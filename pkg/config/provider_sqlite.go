package config

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/bonesbb/HASPR/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dataset roles in the datasets table
const (
	roleGlobal = "global"
	roleDirect = "direct"
	roleAlbedo = "albedo"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db      *sql.DB
	dbPath  string
	runName string
}

// NewSQLiteProvider creates a new SQLite configuration provider reading the
// "default" run.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:      db,
		dbPath:  dbPath,
		runName: defaultRunConfigurationName,
	}, nil
}

// WithRun selects the named run configuration.
func (s *SQLiteProvider) WithRun(name string) *SQLiteProvider {
	s.runName = name
	return s
}

// Migrator returns a migrator for the embedded configuration schema.
func (s *SQLiteProvider) Migrator() *migrate.Migrator {
	return migrate.NewMigrator(s.db, migrate.NewFSProvider(migrations, "migrations", ""))
}

// EnsureSchema applies any pending schema migrations.
func (s *SQLiteProvider) EnsureSchema() error {
	if err := s.Migrator().MigrateUp(); err != nil {
		return fmt.Errorf("failed to migrate configuration schema: %w", err)
	}
	return nil
}

// LoadConfig loads the run configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*RunConfiguration, error) {
	query := `SELECT name, model, coordinates, output_dir, efficiency, default_albedo,
		skip_profiles, optimisation, sweep_increment, sweep_batch_size, sweep_batch_index,
		refined_azimuth_min, refined_azimuth_max, refined_tilt_min, refined_tilt_max,
		refined_increment, log_file, log_max_size_mb, log_max_backups, metrics_textfile
		FROM runs WHERE name = ?`

	var (
		cfg                                  RunConfiguration
		efficiency, albedo, increment        sql.NullFloat64
		azMin, azMax, tiltMin, tiltMax, step sql.NullFloat64
		optimisation, batchSize, batchIndex  sql.NullInt64
		logMaxSize, logMaxBackups            sql.NullInt64
		logFile, metricsTextfile             sql.NullString
	)
	err := s.db.QueryRow(query, s.runName).Scan(
		&cfg.Name, &cfg.Model, &cfg.Coordinates, &cfg.OutputDir, &efficiency, &albedo,
		&cfg.SkipProfiles, &optimisation, &increment, &batchSize, &batchIndex,
		&azMin, &azMax, &tiltMin, &tiltMax,
		&step, &logFile, &logMaxSize, &logMaxBackups, &metricsTextfile,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run configuration %q not found in %s", s.runName, s.dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run configuration: %w", err)
	}

	cfg.Efficiency = efficiency.Float64
	if albedo.Valid {
		cfg.DefaultAlbedo = &albedo.Float64
	}
	cfg.Sweep = SweepData{
		Increment:    increment.Float64,
		BatchSize:    int(batchSize.Int64),
		Optimisation: int(optimisation.Int64),
		Refined: RangeData{
			AzimuthMin: azMin.Float64,
			AzimuthMax: azMax.Float64,
			TiltMin:    tiltMin.Float64,
			TiltMax:    tiltMax.Float64,
			Increment:  step.Float64,
		},
	}
	if batchIndex.Valid {
		idx := int(batchIndex.Int64)
		cfg.Sweep.BatchIndex = &idx
	}
	cfg.Log = LogData{
		File:       logFile.String,
		MaxSizeMB:  int(logMaxSize.Int64),
		MaxBackups: int(logMaxBackups.Int64),
	}
	cfg.MetricsTextfile = metricsTextfile.String

	if err := s.loadDatasets(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}
	return &cfg, nil
}

func (s *SQLiteProvider) loadDatasets(cfg *RunConfiguration) error {
	rows, err := s.db.Query(`SELECT role, path, spatial_resolution, temporal_resolution_minutes
		FROM datasets WHERE run_name = ?`, s.runName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			role, path string
			resolution sql.NullFloat64
			minutes    sql.NullInt64
		)
		if err := rows.Scan(&role, &path, &resolution, &minutes); err != nil {
			return err
		}
		d := DatasetData{
			Path:                      path,
			SpatialResolution:         resolution.Float64,
			TemporalResolutionMinutes: int(minutes.Int64),
		}
		switch role {
		case roleGlobal:
			cfg.Datasets.GlobalIrradiance = d
		case roleDirect:
			cfg.Datasets.DirectIrradiance = d
		case roleAlbedo:
			cfg.Datasets.Albedo = d
		}
	}
	return rows.Err()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig stores cfg under its name, replacing any previous version.
func (s *SQLiteProvider) SaveConfig(cfg *RunConfiguration) error {
	name := cfg.Name
	if name == "" {
		name = defaultRunConfigurationName
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM datasets WHERE run_name = ?", name); err != nil {
		return fmt.Errorf("failed to clear datasets: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to clear run configuration: %w", err)
	}

	var batchIndex sql.NullInt64
	if cfg.Sweep.BatchIndex != nil {
		batchIndex = sql.NullInt64{Int64: int64(*cfg.Sweep.BatchIndex), Valid: true}
	}
	r := cfg.Sweep.Refined
	_, err = tx.Exec(`INSERT INTO runs (name, model, coordinates, output_dir, efficiency,
		default_albedo, skip_profiles, optimisation, sweep_increment, sweep_batch_size,
		sweep_batch_index, refined_azimuth_min, refined_azimuth_max, refined_tilt_min,
		refined_tilt_max, refined_increment, log_file, log_max_size_mb, log_max_backups,
		metrics_textfile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
		name, cfg.Model, cfg.Coordinates, cfg.OutputDir, nullFloat64(cfg.Efficiency),
		nullFloat64Ptr(cfg.DefaultAlbedo), cfg.SkipProfiles, nullInt(cfg.Sweep.Optimisation),
		nullFloat64(cfg.Sweep.Increment), nullInt(cfg.Sweep.BatchSize), batchIndex,
		r.AzimuthMin, r.AzimuthMax, r.TiltMin, r.TiltMax, nullFloat64(r.Increment),
		nullString(cfg.Log.File), nullInt(cfg.Log.MaxSizeMB), nullInt(cfg.Log.MaxBackups),
		nullString(cfg.MetricsTextfile),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run configuration: %w", err)
	}

	datasets := []struct {
		role string
		data DatasetData
	}{
		{roleGlobal, cfg.Datasets.GlobalIrradiance},
		{roleDirect, cfg.Datasets.DirectIrradiance},
		{roleAlbedo, cfg.Datasets.Albedo},
	}
	for _, d := range datasets {
		if d.data.Path == "" {
			continue
		}
		_, err := tx.Exec(`INSERT INTO datasets (run_name, role, path, spatial_resolution,
			temporal_resolution_minutes) VALUES (?, ?, ?, ?, ?)`,
			name, d.role, d.data.Path, nullFloat64(d.data.SpatialResolution), nullInt(d.data.TemporalResolutionMinutes))
		if err != nil {
			return fmt.Errorf("failed to insert %s dataset: %w", d.role, err)
		}
	}

	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat64(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}

// nullFloat64Ptr keeps an explicit zero, unlike nullFloat64.
func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i != 0}
}
