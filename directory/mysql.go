package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
)

const (
	getUserSQL = "SELECT id,username,name,photo_url,is_online,last_seen FROM users WHERE id=?"
	getManySQL = "SELECT id,username,name,photo_url,is_online,last_seen FROM users WHERE id IN (%s)"
	searchSQL  = "SELECT id,username,name,photo_url,is_online,last_seen FROM users " +
		"WHERE id <> ? AND (LOWER(name) LIKE ? OR LOWER(username) LIKE ?) LIMIT ?"
	setOnlineSQL = "UPDATE users SET is_online=?, last_seen=? WHERE id=?"
)

// mysqlDirectory implements `Directory` on the shared application database.
type mysqlDirectory struct {
	*sql.DB
}

func NewDirectory(db *sql.DB) Directory {
	return &mysqlDirectory{db}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var lastSeen sql.NullTime
	if err := row.Scan(&u.Id, &u.Username, &u.Name, &u.PhotoURL, &u.IsOnline, &lastSeen); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		u.LastSeen = lastSeen.Time.UnixMilli()
	}
	return &u, nil
}

func (d *mysqlDirectory) Get(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(d.QueryRowContext(ctx, getUserSQL, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		glog.Errorf("directory: get user scan err: %v", err)
		return nil, err
	}
	return u, nil
}

func (d *mysqlDirectory) GetMany(ctx context.Context, ids []int64) (map[int64]*User, error) {
	out := make(map[int64]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := fmt.Sprintf(getManySQL, placeholders(len(ids)))

	rows, err := d.QueryContext(ctx, q, args...)
	if err != nil {
		glog.Errorf("directory: get many query err: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.Id] = u
	}
	return out, rows.Err()
}

func (d *mysqlDirectory) Search(ctx context.Context, query string, excludeUid int64, limit int) ([]*User, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := d.QueryContext(ctx, searchSQL, excludeUid, pattern, pattern, limit)
	if err != nil {
		glog.Errorf("directory: search query err: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (d *mysqlDirectory) SetOnline(ctx context.Context, id int64, online bool) error {
	if _, err := d.ExecContext(ctx, setOnlineSQL, online, time.Now(), id); err != nil {
		glog.Errorf("directory: set online exec err: %v", err)
		return err
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
