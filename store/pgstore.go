package store

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvRow is one key of a PGStore.
type kvRow struct {
	Key   []byte `gorm:"column:kv_key;primaryKey"`
	Value []byte `gorm:"column:kv_value;not null"`
}

func (kvRow) TableName() string { return "fundround_kv" }

// PGStore is a KV store in a PostgreSQL table. Batches run in a single
// transaction.
type PGStore struct {
	db *gorm.DB
}

// Compile-time interface checks.
var (
	_ KV      = (*PGStore)(nil)
	_ Batcher = (*PGStore)(nil)
)

// OpenPostgres connects to dsn and creates the table if needed.
func OpenPostgres(dsn string, log logrus.FieldLogger) (*PGStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	s, err := NewPGStore(db)
	if err != nil {
		return nil, err
	}
	log.WithField("table", kvRow{}.TableName()).Info("postgres store ready")
	return s, nil
}

// NewPGStore wraps an open gorm connection and migrates the table.
func NewPGStore(db *gorm.DB) (*PGStore, error) {
	if err := db.AutoMigrate(&kvRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate kv table")
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) Get(key []byte) ([]byte, error) {
	var row kvRow
	err := s.db.Where("kv_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %x", key)
	}
	if row.Value == nil {
		row.Value = []byte{}
	}
	return row.Value, nil
}

func (s *PGStore) Set(key, value []byte) error {
	return errors.Wrapf(upsert(s.db, key, value), "set %x", key)
}

func (s *PGStore) Delete(key []byte) error {
	err := s.db.Where("kv_key = ?", key).Delete(&kvRow{}).Error
	return errors.Wrapf(err, "delete %x", key)
}

// WriteBatch applies ops in one transaction.
func (s *PGStore) WriteBatch(ops []Op) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if op.Value == nil {
				if err := tx.Where("kv_key = ?", op.Key).Delete(&kvRow{}).Error; err != nil {
					return errors.Wrapf(err, "delete %x", op.Key)
				}
				continue
			}
			if err := upsert(tx, op.Key, op.Value); err != nil {
				return errors.Wrapf(err, "set %x", op.Key)
			}
		}
		return nil
	})
}

func (s *PGStore) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	q := s.db.Model(&kvRow{}).Where("kv_key >= ?", prefix).Order("kv_key")
	if end := prefixEnd(prefix); end != nil {
		q = q.Where("kv_key < ?", end)
	}
	rows, err := q.Rows()
	if err != nil {
		return errors.Wrap(err, "iterate")
	}
	defer rows.Close()
	for rows.Next() {
		var row kvRow
		if err := s.db.ScanRows(rows, &row); err != nil {
			return errors.Wrap(err, "scan row")
		}
		if !fn(row.Key, row.Value) {
			break
		}
	}
	return errors.Wrap(rows.Err(), "iterate")
}

// Close releases the underlying connection pool.
func (s *PGStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsert(db *gorm.DB, key, value []byte) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value"}),
	}).Create(&kvRow{Key: key, Value: value}).Error
}
