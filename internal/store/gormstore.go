package store

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	fperrors "github.com/zfogg/soundfp/internal/errors"
	"github.com/zfogg/soundfp/internal/metrics"
	"github.com/zfogg/soundfp/internal/models"
)

// GormStore is the gorm-backed ModelStore, grounded on this stack's
// connection-pooling and metrics-hook conventions: driver "postgres"
// connects to a real server, "sqlite" (or an empty driver) opens a
// sqlite file (or ":memory:"); any other driver is rejected.
type GormStore struct {
	db *gorm.DB
}

// Open connects to driver ("postgres" or "sqlite") at dsn, tunes the
// connection pool the same way this stack's primary database
// connection is tuned, registers query-duration metrics hooks and
// migrates the schema.
func Open(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fperrors.InvalidConfigf("unknown store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fperrors.StoreFailuref(err, "failed to open store")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	registerMetricsHooks(db)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, fperrors.StoreFailuref(err, "failed to migrate schema")
	}
	if err := createIndexes(db); err != nil {
		return nil, fperrors.StoreFailuref(err, "failed to create indexes")
	}

	return &GormStore{db: db}, nil
}

func createIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_sub_fingerprints_track ON sub_fingerprints (track_id)",
		"CREATE INDEX IF NOT EXISTS idx_hash_entries_table_key ON hash_entries (table_index, hash_key)",
		"CREATE INDEX IF NOT EXISTS idx_hash_entries_sub_fingerprint ON hash_entries (sub_fingerprint_id)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the underlying connection.
func (s *GormStore) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *GormStore) EnsureSchema(ctx context.Context, want SchemaID) error {
	var existing models.SchemaIdentifier
	err := s.db.WithContext(ctx).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		rec := models.SchemaIdentifier{
			Rows:            want.Rows,
			Cols:            want.Cols,
			TopWavelets:     want.TopWavelets,
			L:               want.L,
			K:               want.K,
			PermutationSeed: want.PermutationSeed,
			CreatedAt:       time.Now().UTC(),
		}
		return s.db.WithContext(ctx).Create(&rec).Error
	}
	if err != nil {
		return fperrors.StoreFailuref(err, "reading schema identifier")
	}
	if existing.Rows != want.Rows || existing.Cols != want.Cols || existing.TopWavelets != want.TopWavelets ||
		existing.L != want.L || existing.K != want.K || existing.PermutationSeed != want.PermutationSeed {
		return fperrors.SchemaMismatchf("store schema %+v does not match runtime schema %+v", existing, want)
	}
	return nil
}

func (s *GormStore) InsertTrack(ctx context.Context, meta TrackMetadata) (TrackRef, error) {
	rec := models.Track{
		ExternalID:    meta.ExternalID,
		Artist:        meta.Artist,
		Title:         meta.Title,
		Album:         meta.Album,
		ReleaseYear:   meta.ReleaseYear,
		LengthSeconds: meta.LengthSeconds,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return 0, fperrors.StoreFailuref(err, "insert track")
	}
	return TrackRef(rec.ID), nil
}

// InsertSubFingerprints persists the batch in one transaction: the
// model store must not end up with a partially-inserted set (spec
// §5's cancellation guarantee is upheld one layer up, by C7 never
// calling this until the full batch is computed).
func (s *GormStore) InsertSubFingerprints(ctx context.Context, track TrackRef, fps []SubFingerprintInput) ([]SubFpRef, error) {
	refs := make([]SubFpRef, 0, len(fps))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fp := range fps {
			rec := models.SubFingerprint{
				TrackID:            uint(track),
				StartOffsetSeconds: fp.StartOffsetSeconds,
				Bits:               fp.Bits,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			entries := make([]models.HashEntry, len(fp.HashKeys))
			for t, key := range fp.HashKeys {
				entries[t] = models.HashEntry{
					SubFingerprintID: rec.ID,
					TableIndex:       t,
					HashKey:          key,
				}
			}
			if len(entries) > 0 {
				if err := tx.Create(&entries).Error; err != nil {
					return err
				}
			}
			refs = append(refs, SubFpRef(rec.ID))
		}
		return nil
	})
	if err != nil {
		return nil, fperrors.StoreFailuref(err, "insert sub-fingerprints")
	}
	return refs, nil
}

func (s *GormStore) ReadSubFingerprintsByHash(ctx context.Context, tableIndex int, key uint32) ([]SubFpRef, error) {
	var entries []models.HashEntry
	err := s.db.WithContext(ctx).
		Where("table_index = ? AND hash_key = ?", tableIndex, key).
		Find(&entries).Error
	if err != nil {
		return nil, fperrors.StoreFailuref(err, "read sub-fingerprints by hash")
	}
	refs := make([]SubFpRef, len(entries))
	for i, e := range entries {
		refs[i] = SubFpRef(e.SubFingerprintID)
	}
	return refs, nil
}

func (s *GormStore) ReadFingerprintBits(ctx context.Context, ref SubFpRef) ([]byte, error) {
	var rec models.SubFingerprint
	if err := s.db.WithContext(ctx).First(&rec, uint(ref)).Error; err != nil {
		return nil, fperrors.StoreFailuref(err, "read fingerprint bits")
	}
	return rec.Bits, nil
}

func (s *GormStore) TrackOf(ctx context.Context, ref SubFpRef) (TrackRef, error) {
	var rec models.SubFingerprint
	if err := s.db.WithContext(ctx).First(&rec, uint(ref)).Error; err != nil {
		return 0, fperrors.StoreFailuref(err, "read sub-fingerprint's track")
	}
	return TrackRef(rec.TrackID), nil
}

func (s *GormStore) ReadTrack(ctx context.Context, ref TrackRef) (TrackMetadata, error) {
	var rec models.Track
	if err := s.db.WithContext(ctx).First(&rec, uint(ref)).Error; err != nil {
		return TrackMetadata{}, fperrors.StoreFailuref(err, "read track")
	}
	return TrackMetadata{
		ExternalID:    rec.ExternalID,
		Artist:        rec.Artist,
		Title:         rec.Title,
		Album:         rec.Album,
		ReleaseYear:   rec.ReleaseYear,
		LengthSeconds: rec.LengthSeconds,
	}, nil
}

// registerMetricsHooks wires gorm's Before/After callbacks to the
// engine's store-query metrics, the same pattern used for this
// stack's primary database connection.
func registerMetricsHooks(db *gorm.DB) {
	hook := func(op string) (before, after func(*gorm.DB)) {
		return func(db *gorm.DB) {
				db.InstanceSet("metrics:start_time", time.Now())
			}, func(db *gorm.DB) {
				start, ok := db.InstanceGet("metrics:start_time")
				if !ok {
					return
				}
				duration := time.Since(start.(time.Time)).Seconds()
				metrics.Get().StoreQueryDuration.WithLabelValues(op).Observe(duration)
				status := "success"
				if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
					status = "error"
				}
				metrics.Get().StoreQueriesTotal.WithLabelValues(op, status).Inc()
			}
	}

	before, after := hook("create")
	db.Callback().Create().Before("gorm:before_create").Register("metrics:before_create", before)
	db.Callback().Create().After("gorm:after_create").Register("metrics:after_create", after)

	before, after = hook("query")
	db.Callback().Query().Before("gorm:before_query").Register("metrics:before_query", before)
	db.Callback().Query().After("gorm:after_query").Register("metrics:after_query", after)

	before, after = hook("update")
	db.Callback().Update().Before("gorm:before_update").Register("metrics:before_update", before)
	db.Callback().Update().After("gorm:after_update").Register("metrics:after_update", after)

	before, after = hook("delete")
	db.Callback().Delete().Before("gorm:before_delete").Register("metrics:before_delete", before)
	db.Callback().Delete().After("gorm:after_delete").Register("metrics:after_delete", after)
}
