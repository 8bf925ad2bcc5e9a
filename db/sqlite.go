package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/montanaflynn/stats"

	"cropyield/ml"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
    id TEXT PRIMARY KEY,
    crop VARCHAR(64) NOT NULL,
    season VARCHAR(32) NOT NULL,
    state VARCHAR(64) NOT NULL,
    area REAL NOT NULL,
    fertilizer REAL NOT NULL,
    pesticide REAL NOT NULL,
    annual_rainfall REAL NOT NULL,
    production REAL NOT NULL,
    yield REAL NOT NULL,
    tier VARCHAR(16) NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
`

// Record is one served prediction.
type Record struct {
	ID             string    `db:"id" json:"id"`
	Crop           string    `db:"crop" json:"crop"`
	Season         string    `db:"season" json:"season"`
	State          string    `db:"state" json:"state"`
	Area           float64   `db:"area" json:"area"`
	Fertilizer     float64   `db:"fertilizer" json:"fertilizer"`
	Pesticide      float64   `db:"pesticide" json:"pesticide"`
	AnnualRainfall float64   `db:"annual_rainfall" json:"annual_rainfall"`
	Production     float64   `db:"production" json:"production"`
	Yield          float64   `db:"yield" json:"yield"`
	Tier           string    `db:"tier" json:"tier"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// NewRecord stamps a request/result pair with a fresh id and the current time.
func NewRecord(req ml.Request, result ml.Result, tier string) Record {
	req = req.Normalize()
	return Record{
		ID:             uuid.NewString(),
		Crop:           req.Crop,
		Season:         req.Season,
		State:          req.State,
		Area:           req.Area,
		Fertilizer:     req.Fertilizer,
		Pesticide:      req.Pesticide,
		AnnualRainfall: req.AnnualRainfall,
		Production:     req.Production,
		Yield:          result.Yield,
		Tier:           tier,
		CreatedAt:      time.Now().UTC(),
	}
}

// Summary describes the distribution of recorded yields.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// HistoryStore keeps an audit trail of predictions in SQLite.
type HistoryStore struct {
	db *sqlx.DB
}

func OpenHistory(path string) (*HistoryStore, error) {
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	database, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY.
	database.SetMaxOpenConns(1)
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, err
	}
	return &HistoryStore{db: database}, nil
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) Record(ctx context.Context, rec Record) error {
	_, err := s.db.NamedExecContext(ctx, `
        INSERT INTO predictions (id, crop, season, state, area, fertilizer, pesticide, annual_rainfall, production, yield, tier, created_at)
        VALUES (:id, :crop, :season, :state, :area, :fertilizer, :pesticide, :annual_rainfall, :production, :yield, :tier, :created_at)
    `, rec)
	return err
}

// Recent returns up to limit records, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	records := []Record{}
	err := s.db.SelectContext(ctx, &records, `
        SELECT id, crop, season, state, area, fertilizer, pesticide, annual_rainfall, production, yield, tier, created_at
        FROM predictions
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	return records, err
}

func (s *HistoryStore) Summary(ctx context.Context) (Summary, error) {
	var yields []float64
	if err := s.db.SelectContext(ctx, &yields, `SELECT yield FROM predictions`); err != nil {
		return Summary{}, err
	}
	if len(yields) == 0 {
		return Summary{}, nil
	}

	data := stats.Float64Data(yields)
	summary := Summary{Count: len(yields)}
	var err error
	if summary.Mean, err = data.Mean(); err != nil {
		return Summary{}, err
	}
	if summary.Median, err = data.Median(); err != nil {
		return Summary{}, err
	}
	if summary.Min, err = data.Min(); err != nil {
		return Summary{}, err
	}
	if summary.Max, err = data.Max(); err != nil {
		return Summary{}, err
	}
	if summary.StdDev, err = data.StandardDeviation(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
