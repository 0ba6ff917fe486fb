package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/pkg/dbutil"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

const documentsTable = "documents"

var documentColumns = []string{"id", "owner_id", "name", "file_key", "content_type", "size", "state", "ctime", "mtime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":           doc.ID,
		"owner_id":     doc.OwnerID,
		"name":         doc.Name,
		"file_key":     doc.FileKey,
		"content_type": doc.ContentType,
		"size":         doc.Size,
		"state":        doc.State,
		"ctime":        doc.Ctime,
		"mtime":        doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert(documentsTable, []map[string]interface{}{data})
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

func (r *DocumentRepo) GetByID(ctx context.Context, ownerID, docID string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{
		"id":       docID,
		"owner_id": ownerID,
		"state":    model.DocumentStateNormal,
	})
}

// Lookup fetches a live document without an owner check. Callers must already hold a grant.
func (r *DocumentRepo) Lookup(ctx context.Context, docID string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{
		"id":    docID,
		"state": model.DocumentStateNormal,
	})
}

func (r *DocumentRepo) List(ctx context.Context, ownerID string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"state":    model.DocumentStateNormal,
		"_orderby": "mtime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect(documentsTable, where, documentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, ownerID, docID string, mtime int64) error {
	where := map[string]interface{}{"id": docID, "owner_id": ownerID, "state": model.DocumentStateNormal}
	update := map[string]interface{}{"state": model.DocumentStateDeleted, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate(documentsTable, where, update)
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

func (r *DocumentRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect(documentsTable, where, documentColumns)
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
	return scanDocument(rows)
}

func scanDocument(rows *sql.Rows) (*model.Document, error) {
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Name, &doc.FileKey, &doc.ContentType, &doc.Size, &doc.State, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	return &doc, nil
}
