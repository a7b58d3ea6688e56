package proposal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// knowledgeSeparator joins individual knowledge blobs into the single
// context string handed to the generation engine.
const knowledgeSeparator = "\n---\n"

type KnowledgeStore interface {
	Insert(ctx context.Context, filename, content string) (Knowledge, error)
	List(ctx context.Context) ([]Knowledge, error)
	// AllContent returns every stored blob joined with a fixed separator,
	// oldest first. Fetched once per generation run, no per-section ranking.
	AllContent(ctx context.Context) (string, error)
}

type PostgresKnowledgeStore struct {
	pool *pgxpool.Pool
}

func NewPostgresKnowledgeStore(pool *pgxpool.Pool) *PostgresKnowledgeStore {
	return &PostgresKnowledgeStore{pool: pool}
}

var _ KnowledgeStore = (*PostgresKnowledgeStore)(nil)

func (s *PostgresKnowledgeStore) Insert(ctx context.Context, filename, content string) (Knowledge, error) {
	k := Knowledge{
		ID:        uuid.NewString(),
		Filename:  filename,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO naraworks_knowledge (id, filename, content, created_at) VALUES ($1, $2, $3, $4)",
		k.ID, k.Filename, k.Content, k.CreatedAt)
	if err != nil {
		return Knowledge{}, fmt.Errorf("insert knowledge: %w", err)
	}
	return k, nil
}

func (s *PostgresKnowledgeStore) List(ctx context.Context) ([]Knowledge, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, filename, content, created_at FROM naraworks_knowledge ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query knowledge: %w", err)
	}
	defer rows.Close()

	items := make([]Knowledge, 0)
	for rows.Next() {
		var k Knowledge
		if err := rows.Scan(&k.ID, &k.Filename, &k.Content, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan knowledge: %w", err)
		}
		items = append(items, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge: %w", err)
	}
	return items, nil
}

func (s *PostgresKnowledgeStore) AllContent(ctx context.Context) (string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT content FROM naraworks_knowledge ORDER BY created_at ASC")
	if err != nil {
		return "", fmt.Errorf("query knowledge content: %w", err)
	}
	defer rows.Close()

	contents := make([]string, 0)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", fmt.Errorf("scan knowledge content: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate knowledge content: %w", err)
	}
	return strings.Join(contents, knowledgeSeparator), nil
}
