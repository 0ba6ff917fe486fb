package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/pkg/dbutil"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

const sharesTable = "shares"

var shareColumns = []string{
	"id", "owner_id", "token", "resource_id", "resource_type", "resource_name", "invitee_email",
	"permission", "allow_download", "allow_print", "expires_at", "status", "usage_count",
	"password_hash", "last_accessed_at", "ctime", "mtime",
}

type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

func (r *ShareRepo) Create(ctx context.Context, share *model.Share) error {
	data := map[string]interface{}{
		"id":               share.ID,
		"owner_id":         share.OwnerID,
		"token":            share.Token,
		"resource_id":      share.ResourceID,
		"resource_type":    share.ResourceType,
		"resource_name":    share.ResourceName,
		"invitee_email":    share.InviteeEmail,
		"permission":       share.Permission,
		"allow_download":   share.AllowDownload,
		"allow_print":      share.AllowPrint,
		"expires_at":       share.ExpiresAt,
		"status":           share.Status,
		"usage_count":      share.UsageCount,
		"password_hash":    share.PasswordHash,
		"last_accessed_at": share.LastAccessedAt,
		"ctime":            share.Ctime,
		"mtime":            share.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert(sharesTable, []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ShareRepo) GetByToken(ctx context.Context, token string) (*model.Share, error) {
	return r.getOne(ctx, map[string]interface{}{"token": token})
}

func (r *ShareRepo) GetByID(ctx context.Context, id string) (*model.Share, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id})
}

// ListByOwner returns the owner's shares, newest first. An empty resourceID lists all of them.
func (r *ShareRepo) ListByOwner(ctx context.Context, ownerID, resourceID string) ([]model.Share, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"_orderby": "ctime desc",
	}
	if resourceID != "" {
		where["resource_id"] = resourceID
	}
	sqlStr, args, err := builder.BuildSelect(sharesTable, where, shareColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Share, 0)
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *share)
	}
	return items, rows.Err()
}

// UpdateConfig rewrites the owner-editable fields. Revoked shares are left untouched.
func (r *ShareRepo) UpdateConfig(ctx context.Context, share *model.Share) error {
	sqlStr := `
		UPDATE shares
		SET permission = ?, allow_download = ?, allow_print = ?, expires_at = ?, password_hash = ?,
			invitee_email = ?,
			status = CASE
				WHEN status = ? AND (CAST(? AS BIGINT) = 0 OR CAST(? AS BIGINT) > CAST(? AS BIGINT))
				THEN CASE WHEN last_accessed_at > 0 THEN ? ELSE ? END
				ELSE status END,
			mtime = ?
		WHERE id = ? AND owner_id = ? AND status <> ?
	`
	args := []interface{}{
		share.Permission, share.AllowDownload, share.AllowPrint, share.ExpiresAt, share.PasswordHash,
		share.InviteeEmail,
		model.ShareStatusExpired, share.ExpiresAt, share.ExpiresAt, share.Mtime,
		model.ShareStatusAccepted, model.ShareStatusPending,
		share.Mtime,
		share.ID, share.OwnerID, model.ShareStatusRevoked,
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *ShareRepo) Revoke(ctx context.Context, ownerID, id string, mtime int64) error {
	where := map[string]interface{}{"id": id, "owner_id": ownerID}
	update := map[string]interface{}{"status": model.ShareStatusRevoked, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate(sharesTable, where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *ShareRepo) RevokeByResource(ctx context.Context, ownerID, resourceID string, mtime int64) error {
	sqlStr := `UPDATE shares SET status = ?, mtime = ? WHERE owner_id = ? AND resource_id = ? AND status <> ?`
	args := []interface{}{model.ShareStatusRevoked, mtime, ownerID, resourceID, model.ShareStatusRevoked}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// MarkAccessed records a guest access and moves a pending share to accepted.
func (r *ShareRepo) MarkAccessed(ctx context.Context, id string, now int64) error {
	sqlStr := `
		UPDATE shares
		SET status = CASE WHEN status = ? THEN ? ELSE status END, last_accessed_at = ?, mtime = ?
		WHERE id = ? AND status IN (?, ?)
	`
	args := []interface{}{
		model.ShareStatusPending, model.ShareStatusAccepted, now, now,
		id, model.ShareStatusPending, model.ShareStatusAccepted,
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// IncrementUsage bumps usage_count in a single statement and returns the new value.
func (r *ShareRepo) IncrementUsage(ctx context.Context, id string, now int64) (int64, error) {
	sqlStr := `
		UPDATE shares SET usage_count = usage_count + 1, mtime = ?
		WHERE id = ? AND status <> ?
		RETURNING usage_count
	`
	args := []interface{}{now, id, model.ShareStatusRevoked}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		if dbutil.IsNoRows(err) {
			return 0, appErr.ErrNotFound
		}
		return 0, err
	}
	return count, nil
}

// ExpireBefore flips live shares whose deadline passed to expired.
func (r *ShareRepo) ExpireBefore(ctx context.Context, now int64) (int64, error) {
	sqlStr := `
		UPDATE shares SET status = ?, mtime = ?
		WHERE expires_at > 0 AND expires_at < ? AND status IN (?, ?)
	`
	args := []interface{}{
		model.ShareStatusExpired, now, now, model.ShareStatusPending, model.ShareStatusAccepted,
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ShareRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Share, error) {
	sqlStr, args, err := builder.BuildSelect(sharesTable, where, shareColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanShare(rows)
}

func scanShare(rows *sql.Rows) (*model.Share, error) {
	var share model.Share
	if err := rows.Scan(
		&share.ID, &share.OwnerID, &share.Token, &share.ResourceID, &share.ResourceType,
		&share.ResourceName, &share.InviteeEmail, &share.Permission, &share.AllowDownload,
		&share.AllowPrint, &share.ExpiresAt, &share.Status, &share.UsageCount, &share.PasswordHash,
		&share.LastAccessedAt, &share.Ctime, &share.Mtime,
	); err != nil {
		return nil, err
	}
	return &share, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
