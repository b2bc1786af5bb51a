package collab

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

const researchTableDDL = `CREATE TABLE IF NOT EXISTS research_assessments (
	id BIGSERIAL PRIMARY KEY,
	score INTEGER NOT NULL,
	severity TEXT NOT NULL,
	primary_emotion TEXT NOT NULL,
	consent BOOLEAN NOT NULL,
	assessment_date DATE NOT NULL
)`

// PostgresAnalytics forwards de-identified records to the research
// warehouse. The table deliberately has no user reference column.
type PostgresAnalytics struct {
	db *sql.DB
}

func NewPostgresAnalytics(dsn string) (*PostgresAnalytics, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(researchTableDDL); err != nil {
		return nil, fmt.Errorf("ensure research table: %w", err)
	}
	return &PostgresAnalytics{db: db}, nil
}

func (p *PostgresAnalytics) Insert(ctx context.Context, rec *services.DeidentifiedRecord) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO research_assessments (score, severity, primary_emotion, consent, assessment_date)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Score, string(rec.Severity), rec.PrimaryEmotion, rec.Consent, rec.Date)
	if err != nil {
		return fmt.Errorf("insert research record: %w", err)
	}
	return nil
}

func (p *PostgresAnalytics) Close() error {
	return p.db.Close()
}
