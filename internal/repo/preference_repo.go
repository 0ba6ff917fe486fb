package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/pkg/dbutil"
)

type PreferenceRepo struct {
	db *sql.DB
}

func NewPreferenceRepo(db *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

func (r *PreferenceRepo) List(ctx context.Context, userID string) ([]model.Preference, error) {
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildSelect("user_preferences", where, []string{"user_id", "key", "value", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Preference, 0)
	for rows.Next() {
		var item model.Preference
		if err := rows.Scan(&item.UserID, &item.Key, &item.Value, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PreferenceRepo) Upsert(ctx context.Context, pref *model.Preference) error {
	sqlStr := `
		INSERT INTO user_preferences (user_id, key, value, mtime) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, mtime = EXCLUDED.mtime
	`
	args := []interface{}{pref.UserID, pref.Key, pref.Value, pref.Mtime}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Delete removes one override, or every override of the user when key is empty.
func (r *PreferenceRepo) Delete(ctx context.Context, userID, key string) error {
	where := map[string]interface{}{"user_id": userID}
	if key != "" {
		where["key"] = key
	}
	sqlStr, args, err := builder.BuildDelete("user_preferences", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
