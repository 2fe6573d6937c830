package task

import (
	"context"
	"strings"

	"github.com/agentboard/agentboard/internal/storage"
)

// AddComment appends a comment to a task.
func (s *Service) AddComment(ctx context.Context, taskID int64, content, createdBy string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if err := s.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}
	res, err := s.db.Execute(ctx,
		"INSERT INTO comments (task_id, content, created_by, created_at) VALUES (?, ?, ?, ?)",
		taskID, content, createdBy, storage.Now(s.now()))
	if err != nil {
		return nil, err
	}
	return s.fetchComment(ctx, res.LastInsertID)
}

// UpdateComment replaces a comment's content.
func (s *Service) UpdateComment(ctx context.Context, id int64, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	res, err := s.db.Execute(ctx, "UPDATE comments SET content = ? WHERE id = ?", content, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Entity: "comment", ID: id}
	}
	return s.fetchComment(ctx, id)
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.Execute(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "comment", ID: id}
	}
	return nil
}

// ListComments returns a task's comments ordered by creation time ascending.
func (s *Service) ListComments(ctx context.Context, taskID int64) ([]Comment, error) {
	if err := s.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.queryComments(ctx, &s.db.Runner, taskID)
}

// AddLink attaches a URL reference to a task.
func (s *Service) AddLink(ctx context.Context, taskID int64, url, description, createdBy string) (*Link, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	if err := s.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}
	res, err := s.db.Execute(ctx,
		"INSERT INTO links (task_id, url, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		taskID, url, description, createdBy, storage.Now(s.now()))
	if err != nil {
		return nil, err
	}
	return s.fetchLink(ctx, res.LastInsertID)
}

// UpdateLinkParams holds a partial link update; nil fields are unchanged.
type UpdateLinkParams struct {
	URL         *string
	Description *string
}

// UpdateLink applies a partial update to a link.
func (s *Service) UpdateLink(ctx context.Context, id int64, p UpdateLinkParams) (*Link, error) {
	var (
		sets []string
		args []any
	)
	if p.URL != nil {
		url := strings.TrimSpace(*p.URL)
		if url == "" {
			return nil, &ValidationError{Field: "url", Reason: "must not be empty"}
		}
		sets, args = append(sets, "url = ?"), append(args, url)
	}
	if p.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *p.Description)
	}
	if len(sets) == 0 {
		return nil, &ValidationError{Field: "update", Reason: "no fields to update"}
	}
	args = append(args, id)
	res, err := s.db.Execute(ctx,
		"UPDATE links SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, &NotFoundError{Entity: "link", ID: id}
	}
	return s.fetchLink(ctx, id)
}

// DeleteLink removes a link.
func (s *Service) DeleteLink(ctx context.Context, id int64) error {
	res, err := s.db.Execute(ctx, "DELETE FROM links WHERE id = ?", id)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "link", ID: id}
	}
	return nil
}

// ListLinks returns a task's links ordered by creation time ascending.
func (s *Service) ListLinks(ctx context.Context, taskID int64) ([]Link, error) {
	if err := s.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.queryLinks(ctx, &s.db.Runner, taskID)
}

// ensureTask fails with NotFoundError when the task does not exist.
func (s *Service) ensureTask(ctx context.Context, id int64) error {
	var one int
	found, err := s.db.QueryOne(ctx, "SELECT 1 FROM tasks WHERE id = ?", []any{id}, &one)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Entity: "task", ID: id}
	}
	return nil
}

func (s *Service) fetchComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	found, err := s.db.QueryOne(ctx,
		"SELECT id, task_id, content, created_by, created_at FROM comments WHERE id = ?",
		[]any{id}, &c.ID, &c.TaskID, &c.Content, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Entity: "comment", ID: id}
	}
	return &c, nil
}

func (s *Service) fetchLink(ctx context.Context, id int64) (*Link, error) {
	var l Link
	found, err := s.db.QueryOne(ctx,
		"SELECT id, task_id, url, description, created_by, created_at FROM links WHERE id = ?",
		[]any{id}, &l.ID, &l.TaskID, &l.URL, &l.Description, &l.CreatedBy, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{Entity: "link", ID: id}
	}
	return &l, nil
}

func (s *Service) queryComments(ctx context.Context, r *storage.Runner, taskID int64) ([]Comment, error) {
	rows, err := r.Query(ctx, `
		SELECT id, task_id, content, created_by, created_at FROM comments
		WHERE task_id = ? ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Content, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, &storage.QueryError{Query: "scan comment", Err: err}
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.QueryError{Query: "iterate comments", Err: err}
	}
	return comments, nil
}

func (s *Service) queryLinks(ctx context.Context, r *storage.Runner, taskID int64) ([]Link, error) {
	rows, err := r.Query(ctx, `
		SELECT id, task_id, url, description, created_by, created_at FROM links
		WHERE task_id = ? ORDER BY created_at ASC, id ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.TaskID, &l.URL, &l.Description, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, &storage.QueryError{Query: "scan link", Err: err}
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &storage.QueryError{Query: "iterate links", Err: err}
	}
	return links, nil
}
