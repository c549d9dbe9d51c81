package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/cv-ranker/internal/candidate"

	_ "modernc.org/sqlite"
)

// ErrPersistence wraps every storage failure. Callers treat it as non-fatal for ranking.
var ErrPersistence = errors.New("persistence failed")

const schema = `
CREATE TABLE IF NOT EXISTS candidates (
	id           TEXT PRIMARY KEY,
	name         TEXT,
	email        TEXT,
	phone        TEXT,
	skills       TEXT,
	education    TEXT,
	experience   TEXT,
	competencies TEXT,
	resume_path  TEXT,
	resume_text  TEXT,
	score        REAL,
	rank         INTEGER,
	score_origin TEXT,
	ai_analysis  TEXT,
	ai_strengths TEXT,
	ai_concerns  TEXT,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	is_active    INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS candidates_resume_path ON candidates (resume_path);
CREATE TABLE IF NOT EXISTS job_descriptions (
	id             TEXT PRIMARY KEY,
	title          TEXT,
	description    TEXT,
	requirements   TEXT,
	skills         TEXT,
	file_path      TEXT,
	processed_text TEXT,
	created_at     TEXT NOT NULL,
	is_active      INTEGER NOT NULL DEFAULT 1
);`

const candidateColumns = `id, name, email, phone, skills, education, experience, competencies,
	resume_path, resume_text, score, rank, score_origin, ai_analysis, ai_strengths, ai_concerns`

// Store keeps candidates and job descriptions in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: database path is empty", ErrPersistence)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %w", ErrPersistence, dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrPersistence, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", ErrPersistence, err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the candidates in one transaction and reactivates deleted ones.
func (s *Store) Save(ctx context.Context, candidates []*candidate.Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrPersistence, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO candidates (`+candidateColumns+`, created_at, updated_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, email = excluded.email, phone = excluded.phone,
			skills = excluded.skills, education = excluded.education, experience = excluded.experience,
			competencies = excluded.competencies, resume_path = excluded.resume_path,
			resume_text = excluded.resume_text, score = excluded.score, rank = excluded.rank,
			score_origin = excluded.score_origin, ai_analysis = excluded.ai_analysis,
			ai_strengths = excluded.ai_strengths, ai_concerns = excluded.ai_concerns,
			updated_at = excluded.updated_at, is_active = 1`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %w", ErrPersistence, err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(time.RFC3339)
	for _, c := range candidates {
		if c == nil {
			continue
		}

		args, err := candidateArgs(c)
		if err != nil {
			return fmt.Errorf("%w: candidate %s: %w", ErrPersistence, c.ID, err)
		}
		args = append(args, now, now)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%w: save candidate %s: %w", ErrPersistence, c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

// LoadByResumePaths returns active candidates for the given resume paths, in path order.
// Paths without a stored candidate are skipped.
func (s *Store) LoadByResumePaths(ctx context.Context, paths []string) ([]*candidate.Candidate, error) {
	var out []*candidate.Candidate
	for _, path := range paths {
		row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates
			WHERE resume_path = ? AND is_active = 1 ORDER BY updated_at DESC LIMIT 1`, path)

		c, err := scanCandidate(row)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: load %s: %w", ErrPersistence, path, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadByIDs returns active candidates for the given ids, in id order.
func (s *Store) LoadByIDs(ctx context.Context, ids []string) ([]*candidate.Candidate, error) {
	var out []*candidate.Candidate
	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// Get returns an active candidate or nil when it is absent or deleted.
func (s *Store) Get(ctx context.Context, id string) (*candidate.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ? AND is_active = 1`, id)

	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrPersistence, id, err)
	}
	return c, nil
}

// Delete marks a candidate inactive. It reports whether a row was changed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE candidates SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		s.now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return false, fmt.Errorf("%w: delete %s: %w", ErrPersistence, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete %s: %w", ErrPersistence, id, err)
	}
	return n > 0, nil
}

// SaveJob upserts a job description.
func (s *Store) SaveJob(ctx context.Context, job *candidate.JobDescription) error {
	requirements, err := json.Marshal(job.Requirements)
	if err != nil {
		return fmt.Errorf("%w: job %s: %w", ErrPersistence, job.ID, err)
	}
	skills, err := json.Marshal(job.Skills)
	if err != nil {
		return fmt.Errorf("%w: job %s: %w", ErrPersistence, job.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO job_descriptions
		(id, title, description, requirements, skills, file_path, processed_text, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, description = excluded.description,
			requirements = excluded.requirements, skills = excluded.skills,
			file_path = excluded.file_path, processed_text = excluded.processed_text, is_active = 1`,
		job.ID, job.Title, job.Description, string(requirements), string(skills),
		job.FilePath, job.ProcessedText, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: save job %s: %w", ErrPersistence, job.ID, err)
	}
	return nil
}

// GetJob returns an active job description or nil.
func (s *Store) GetJob(ctx context.Context, id string) (*candidate.JobDescription, error) {
	var (
		job                  candidate.JobDescription
		requirements, skills sql.NullString
		title, description   sql.NullString
		filePath, processed  sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `SELECT id, title, description, requirements, skills, file_path, processed_text
		FROM job_descriptions WHERE id = ? AND is_active = 1`, id).
		Scan(&job.ID, &title, &description, &requirements, &skills, &filePath, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get job %s: %w", ErrPersistence, id, err)
	}

	job.Title = title.String
	job.Description = description.String
	job.FilePath = filePath.String
	job.ProcessedText = processed.String
	if err := decodeJSON(requirements, &job.Requirements); err != nil {
		return nil, fmt.Errorf("%w: get job %s: %w", ErrPersistence, id, err)
	}
	if err := decodeJSON(skills, &job.Skills); err != nil {
		return nil, fmt.Errorf("%w: get job %s: %w", ErrPersistence, id, err)
	}
	return &job, nil
}

func candidateArgs(c *candidate.Candidate) ([]any, error) {
	encoded := make([]string, 0, 6)
	for _, v := range []any{c.Skills, c.Education, c.Experience, c.Competencies, c.AIStrengths, c.AIConcerns} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, string(b))
	}

	var score sql.NullFloat64
	if c.HasScore() {
		score = sql.NullFloat64{Float64: c.ScoreValue(), Valid: true}
	}

	return []any{
		c.ID, c.Name, c.Email, c.Phone,
		encoded[0], encoded[1], encoded[2], encoded[3],
		c.ResumePath, c.ResumeText, score, c.Rank, string(c.ScoreOrigin), c.AIAnalysis,
		encoded[4], encoded[5],
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (*candidate.Candidate, error) {
	var (
		c                                   candidate.Candidate
		name, email, phone                  sql.NullString
		skills, education, experience, comp sql.NullString
		resumePath, resumeText              sql.NullString
		score                               sql.NullFloat64
		rank                                sql.NullInt64
		origin, analysis                    sql.NullString
		strengths, concerns                 sql.NullString
	)

	if err := row.Scan(&c.ID, &name, &email, &phone, &skills, &education, &experience, &comp,
		&resumePath, &resumeText, &score, &rank, &origin, &analysis, &strengths, &concerns); err != nil {
		return nil, err
	}

	c.Name = name.String
	c.Email = email.String
	c.Phone = phone.String
	c.ResumePath = resumePath.String
	c.ResumeText = resumeText.String
	c.Rank = int(rank.Int64)
	c.ScoreOrigin = candidate.ScoreOrigin(origin.String)
	c.AIAnalysis = analysis.String
	if score.Valid {
		v := score.Float64
		c.Score = &v
	}

	for _, field := range []struct {
		raw  sql.NullString
		dest any
	}{
		{skills, &c.Skills},
		{education, &c.Education},
		{experience, &c.Experience},
		{comp, &c.Competencies},
		{strengths, &c.AIStrengths},
		{concerns, &c.AIConcerns},
	} {
		if err := decodeJSON(field.raw, field.dest); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

func decodeJSON(raw sql.NullString, dest any) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), dest)
}
