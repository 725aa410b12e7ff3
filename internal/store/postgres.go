package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const connectAttempts = 5

// Postgres stores notes through gorm.
type Postgres struct {
	db *gorm.DB
}

type noteRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Text      string    `gorm:"not null"`
	Summary   string    `gorm:"not null"`
	TodosJSON string    `gorm:"column:todos_json;not null"`
	TagsJSON  string    `gorm:"column:tags_json;not null"`
	CreatedAt time.Time `gorm:"index;not null"`
}

func (noteRecord) TableName() string { return "notes" }

// OpenPostgres connects with a short retry loop, since the database often
// starts alongside the service, then migrates the notes table.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("could not connect to postgres")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect postgres: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&noteRecord{}); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Insert(ctx context.Context, n Note) error {
	rec, err := toRecord(n)
	if err != nil {
		return err
	}
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]Note, error) {
	var recs []noteRecord
	if err := p.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	notes := make([]Note, 0, len(recs))
	for _, rec := range recs {
		n, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (Note, error) {
	var rec noteRecord
	err := p.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return fromRecord(rec)
}

func (p *Postgres) Health(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(n Note) (noteRecord, error) {
	todos, err := encodeList(n.Todos)
	if err != nil {
		return noteRecord{}, err
	}
	tags, err := encodeList(n.Tags)
	if err != nil {
		return noteRecord{}, err
	}
	return noteRecord{
		ID:        n.ID,
		Text:      n.Text,
		Summary:   n.Summary,
		TodosJSON: todos,
		TagsJSON:  tags,
		CreatedAt: n.CreatedAt.UTC(),
	}, nil
}

func fromRecord(rec noteRecord) (Note, error) {
	todos, err := decodeList(rec.TodosJSON)
	if err != nil {
		return Note{}, fmt.Errorf("decode todos for %s: %w", rec.ID, err)
	}
	tags, err := decodeList(rec.TagsJSON)
	if err != nil {
		return Note{}, fmt.Errorf("decode tags for %s: %w", rec.ID, err)
	}
	return Note{
		ID:        rec.ID,
		Text:      rec.Text,
		Summary:   rec.Summary,
		Todos:     todos,
		Tags:      tags,
		CreatedAt: rec.CreatedAt.UTC(),
	}, nil
}
