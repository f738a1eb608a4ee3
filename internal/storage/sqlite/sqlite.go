// Package sqlite persists pipeline datasets in SQLite through gorm.
package sqlite

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agentstation/agoraflux/pkg/dataset"
	"github.com/agentstation/agoraflux/pkg/errors"
	"github.com/agentstation/agoraflux/pkg/logging"
	"github.com/agentstation/agoraflux/pkg/storage"
)

// Project groups the datasets of one source.
type Project struct {
	ID        uint   `gorm:"primaryKey"`
	Slug      string `gorm:"uniqueIndex"`
	Title     string
	Tags      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Dataset is one persisted processed source.
type Dataset struct {
	ID           uint   `gorm:"primaryKey"`
	ProjectID    uint   `gorm:"uniqueIndex:idx_project_dataset"`
	Slug         string `gorm:"uniqueIndex:idx_project_dataset"`
	Name         string
	SourceID     string `gorm:"index"`
	DataType     string
	Status       string
	RowsCount    int
	Completeness float64
	Consistency  float64
	Validity     float64
	OverallScore float64
	QualityLevel string
	// Payload holds the sampled records, preview, transformations and
	// documentation as JSON
	Payload     string
	ProcessedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StatusProcessed marks a dataset written by a pipeline run.
const StatusProcessed = "processed"

type payload struct {
	Records         []dataset.Record `json:"data"`
	Preview         []dataset.Record `json:"sample_data"`
	Transformations []string         `json:"transformations"`
	Documentation   any              `json:"documentation,omitempty"`
}

// Store is a storage.Sink backed by a SQLite database.
type Store struct {
	db *gorm.DB
}

var _ storage.Sink = (*Store)(nil)

// Open connects to the database at dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.NewConfigError("sqlite", "failed to open database "+dsn, err)
	}
	if err := db.AutoMigrate(&Project{}, &Dataset{}); err != nil {
		return nil, errors.WrapResource("migrate", "database", dsn, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save gets or creates the project and dataset, then overwrites the dataset
// contents, all in one transaction.
func (s *Store) Save(ctx context.Context, ds storage.Dataset) (storage.Receipt, error) {
	if err := ds.Validate(); err != nil {
		return storage.Receipt{}, err
	}
	blob, err := json.Marshal(payload{
		Records:         ds.Records,
		Preview:         ds.Preview,
		Transformations: ds.Transformations,
		Documentation:   ds.Documentation,
	})
	if err != nil {
		return storage.Receipt{}, errors.WrapResource("encode", "dataset", ds.Name, err)
	}

	receipt := storage.Receipt{
		GroupingKey:   ds.GroupingKey,
		Name:          ds.Name,
		RecordsStored: len(ds.Records),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project := Project{}
		err := tx.Where(Project{Slug: ds.GroupingKey}).
			Attrs(Project{Title: ds.Title, Tags: ds.DataType.String() + ", public data, automated pipeline"}).
			FirstOrCreate(&project).Error
		if err != nil {
			return err
		}

		row := Dataset{}
		res := tx.Where(Dataset{ProjectID: project.ID, Slug: ds.Name}).
			Attrs(Dataset{Name: ds.Title, SourceID: ds.SourceID, DataType: ds.DataType.String()}).
			FirstOrCreate(&row)
		if res.Error != nil {
			return res.Error
		}
		receipt.Created = res.RowsAffected == 1

		row.Status = StatusProcessed
		row.RowsCount = ds.TotalRecords
		row.Completeness = ds.Quality.Completeness
		row.Consistency = ds.Quality.Consistency
		row.Validity = ds.Quality.Validity
		row.OverallScore = ds.Quality.OverallScore
		row.QualityLevel = ds.Quality.Level().String()
		row.Payload = string(blob)
		row.ProcessedAt = ds.ProcessedAt
		return tx.Save(&row).Error
	})
	if err != nil {
		return storage.Receipt{}, errors.WrapResource("save", "dataset", ds.Name, err)
	}

	logging.FromContext(ctx).Debug().
		Str("project", ds.GroupingKey).
		Str("dataset", ds.Name).
		Bool("created", receipt.Created).
		Msg("Persisted dataset to sqlite")
	return receipt, nil
}

// Dataset returns the stored row for groupingKey and name.
func (s *Store) Dataset(ctx context.Context, groupingKey, name string) (*Dataset, error) {
	var row Dataset
	err := s.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = datasets.project_id").
		Where("projects.slug = ? AND datasets.slug = ?", groupingKey, name).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("dataset", groupingKey+"/"+name)
		}
		return nil, errors.WrapResource("fetch", "dataset", name, err)
	}
	return &row, nil
}

// Records decodes the sampled records of a stored dataset.
func (d *Dataset) Records() ([]dataset.Record, error) {
	var p payload
	if err := json.Unmarshal([]byte(d.Payload), &p); err != nil {
		return nil, errors.WrapParse("json", d.Slug, err)
	}
	return p.Records, nil
}

// Count returns the number of stored projects and datasets.
func (s *Store) Count(ctx context.Context) (projects, datasets int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&Project{}).Count(&projects).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Model(&Dataset{}).Count(&datasets).Error; err != nil {
		return 0, 0, err
	}
	return projects, datasets, nil
}
