package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideaboard/api/internal/boarderrors"
	"github.com/ideaboard/api/internal/models"
)

const taskSelectColumns = `
	id, idea_id, title, description, acceptance_criteria, effort, status,
	claimed_by_anon_id, claimed_at, created_at, updated_at
`

// TasksRepository handles data access for tasks and task links.
type TasksRepository struct {
	db *pgxpool.Pool
}

// NewTasksRepository creates a new tasks repository.
func NewTasksRepository(db *pgxpool.Pool) *TasksRepository {
	return &TasksRepository{db: db}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task

	err := row.Scan(
		&task.ID, &task.IdeaID, &task.Title, &task.Description,
		&task.AcceptanceCriteria, &task.Effort, &task.Status,
		&task.ClaimedByAnonID, &task.ClaimedAt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, boarderrors.NewNotFoundError("task", "task not found")
		}

		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	task.Links = []models.TaskLink{}

	return &task, nil
}

// GetByID retrieves a single task (without links).
func (r *TasksRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	row := r.db.QueryRow(ctx,
		`SELECT`+taskSelectColumns+`FROM tasks WHERE id = $1`, id)

	return scanTask(row)
}

// ListByIdea returns an idea's tasks ordered by updated_at ASC, each with its
// links attached.
func (r *TasksRepository) ListByIdea(ctx context.Context, ideaID uuid.UUID) ([]models.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+taskSelectColumns+`FROM tasks WHERE idea_id = $1 ORDER BY updated_at ASC, id`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	index := map[uuid.UUID]int{}

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}

		index[task.ID] = len(tasks)
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	if len(tasks) == 0 {
		return tasks, nil
	}

	linkRows, err := r.db.Query(ctx, `
		SELECT l.id, l.task_id, l.url, l.label, l.created_by_anon_id, l.created_at
		FROM task_links l
		INNER JOIN tasks t ON t.id = l.task_id
		WHERE t.idea_id = $1
		ORDER BY l.created_at ASC`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var link models.TaskLink

		err := linkRows.Scan(&link.ID, &link.TaskID, &link.URL, &link.Label,
			&link.CreatedByAnonID, &link.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task link: %w", err)
		}

		if i, ok := index[link.TaskID]; ok {
			tasks[i].Links = append(tasks[i].Links, link)
		}
	}

	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task links: %w", err)
	}

	return tasks, nil
}

// Claim atomically claims an open task for anonID. Returns ErrConflict when
// the task is no longer open (lost race or already claimed).
func (r *TasksRepository) Claim(ctx context.Context, id uuid.UUID, anonID string) (*models.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks
		SET claimed_by_anon_id = $2, claimed_at = now(), status = $3, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING`+taskSelectColumns,
		id, anonID, models.TaskStatusInProgress, models.TaskStatusOpen,
	)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, boarderrors.ErrNotFound) {
			return nil, boarderrors.NewConflictError("task is already claimed")
		}

		return nil, err
	}

	return task, nil
}

// Release resets a task to open and clears the claim.
func (r *TasksRepository) Release(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks
		SET claimed_by_anon_id = NULL, claimed_at = NULL, status = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+taskSelectColumns,
		id, models.TaskStatusOpen,
	)

	return scanTask(row)
}

// UpdateStatus sets a task's status without touching the claim.
func (r *TasksRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+taskSelectColumns,
		id, status,
	)

	return scanTask(row)
}

// CreateLink attaches a link to a task.
func (r *TasksRepository) CreateLink(ctx context.Context, taskID uuid.UUID, url, label, anonID string) (*models.TaskLink, error) {
	var link models.TaskLink

	err := r.db.QueryRow(ctx, `
		INSERT INTO task_links (task_id, url, label, created_by_anon_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, task_id, url, label, created_by_anon_id, created_at`,
		taskID, url, label, anonID,
	).Scan(&link.ID, &link.TaskID, &link.URL, &link.Label, &link.CreatedByAnonID, &link.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task link: %w", err)
	}

	return &link, nil
}

// GetLinkByID retrieves a single task link.
func (r *TasksRepository) GetLinkByID(ctx context.Context, id uuid.UUID) (*models.TaskLink, error) {
	var link models.TaskLink

	err := r.db.QueryRow(ctx, `
		SELECT id, task_id, url, label, created_by_anon_id, created_at
		FROM task_links WHERE id = $1`, id,
	).Scan(&link.ID, &link.TaskID, &link.URL, &link.Label, &link.CreatedByAnonID, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, boarderrors.NewNotFoundError("task link", "link not found")
		}

		return nil, fmt.Errorf("failed to get task link: %w", err)
	}

	return &link, nil
}

// DeleteLink removes a task link.
func (r *TasksRepository) DeleteLink(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM task_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return boarderrors.NewNotFoundError("task link", "link not found")
	}

	return nil
}
