package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("proposal not found")

// Store is the persistence boundary for proposal rows. SaveProgress and
// Complete are the two writes issued by the generation engine; the rest
// back the CRUD handlers.
type Store interface {
	List(ctx context.Context) ([]Proposal, error)
	Get(ctx context.Context, id string) (Proposal, error)
	Create(ctx context.Context, p Proposal) (Proposal, error)
	Update(ctx context.Context, id string, upd Update) (Proposal, error)
	Delete(ctx context.Context, id string) error
	SaveProgress(ctx context.Context, id string, content string, toc TOC) error
	Complete(ctx context.Context, id string, content string) error
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

const proposalColumns = "id, title, content, toc, overview, status, COALESCE(user_id::text, ''), created_at, updated_at"

func (s *PostgresStore) List(ctx context.Context) ([]Proposal, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+proposalColumns+" FROM naraworks_proposals ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	proposals := make([]Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return proposals, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Proposal, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+proposalColumns+" FROM naraworks_proposals WHERE id = $1", id)
	p, err := scanProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Proposal{}, ErrNotFound
	}
	if err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p Proposal) (Proposal, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	tocJSON, err := marshalTOC(p.TOC)
	if err != nil {
		return Proposal{}, err
	}
	overviewJSON, err := marshalOverview(p.Overview)
	if err != nil {
		return Proposal{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO naraworks_proposals (id, title, content, toc, overview, status, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9)`,
		p.ID, p.Title, p.Content, tocJSON, overviewJSON, string(p.Status), p.UserID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Proposal{}, fmt.Errorf("insert proposal: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, upd Update) (Proposal, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Proposal{}, err
	}

	if upd.Title != nil {
		current.Title = *upd.Title
	}
	if upd.Content != nil {
		current.Content = *upd.Content
	}
	if upd.TOC != nil {
		current.TOC = *upd.TOC
	}
	if upd.Overview != nil {
		current.Overview = upd.Overview
	}
	if upd.Status != nil {
		current.Status = *upd.Status
	}
	current.UpdatedAt = time.Now().UTC()

	tocJSON, err := marshalTOC(current.TOC)
	if err != nil {
		return Proposal{}, err
	}
	overviewJSON, err := marshalOverview(current.Overview)
	if err != nil {
		return Proposal{}, err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE naraworks_proposals
		 SET title = $2, content = $3, toc = $4, overview = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		id, current.Title, current.Content, tocJSON, overviewJSON, string(current.Status), current.UpdatedAt)
	if err != nil {
		return Proposal{}, fmt.Errorf("update proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Proposal{}, ErrNotFound
	}
	return current, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM naraworks_proposals WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveProgress(ctx context.Context, id string, content string, toc TOC) error {
	tocJSON, err := marshalTOC(toc)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		"UPDATE naraworks_proposals SET content = $2, toc = $3, updated_at = NOW() WHERE id = $1",
		id, content, tocJSON)
	if err != nil {
		return fmt.Errorf("save generation progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) Complete(ctx context.Context, id string, content string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE naraworks_proposals SET content = $2, status = $3, updated_at = NOW() WHERE id = $1",
		id, content, string(StatusCompleted))
	if err != nil {
		return fmt.Errorf("complete proposal: %w", err)
	}
	return nil
}

func scanProposal(row pgx.Row) (Proposal, error) {
	var (
		p            Proposal
		status       string
		tocJSON      []byte
		overviewJSON []byte
	)
	err := row.Scan(&p.ID, &p.Title, &p.Content, &tocJSON, &overviewJSON, &status, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, err
		}
		return Proposal{}, fmt.Errorf("scan proposal: %w", err)
	}
	p.Status = Status(status)

	if len(tocJSON) > 0 {
		if err := json.Unmarshal(tocJSON, &p.TOC); err != nil {
			return Proposal{}, fmt.Errorf("decode proposal toc: %w", err)
		}
	}
	if len(overviewJSON) > 0 {
		var ov Overview
		if err := json.Unmarshal(overviewJSON, &ov); err != nil {
			return Proposal{}, fmt.Errorf("decode proposal overview: %w", err)
		}
		p.Overview = &ov
	}
	return p, nil
}

func marshalTOC(toc TOC) ([]byte, error) {
	if toc == nil {
		return nil, nil
	}
	data, err := json.Marshal(toc)
	if err != nil {
		return nil, fmt.Errorf("encode toc: %w", err)
	}
	return data, nil
}

func marshalOverview(ov *Overview) ([]byte, error) {
	if ov == nil {
		return nil, nil
	}
	data, err := json.Marshal(ov)
	if err != nil {
		return nil, fmt.Errorf("encode overview: %w", err)
	}
	return data, nil
}
