package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ViewSession is the stored dashboard position of one browser session.
type ViewSession struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	Mode      string `db:"mode"`
	Query     string `db:"query"`
	SortOrder string `db:"sort_order"`
	Page      int    `db:"page"`
	UpdatedAt string `db:"updated_at"`
}

type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Get returns nil, nil when no row exists for sid.
func (r *SessionRepo) Get(sid string) (*ViewSession, error) {
	var v ViewSession
	err := r.DB.Get(&v, `SELECT id,user_id,mode,query,sort_order,page,updated_at FROM view_sessions WHERE id=?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *SessionRepo) Save(v ViewSession) error {
	_, err := r.DB.NamedExec(`
      INSERT INTO view_sessions(id,user_id,mode,query,sort_order,page,updated_at)
      VALUES(:id,:user_id,:mode,:query,:sort_order,:page,CURRENT_TIMESTAMP)
      ON CONFLICT(id) DO UPDATE SET
        user_id=excluded.user_id,
        mode=excluded.mode,
        query=excluded.query,
        sort_order=excluded.sort_order,
        page=excluded.page,
        updated_at=CURRENT_TIMESTAMP`, v)
	return err
}

func (r *SessionRepo) Delete(sid string) error {
	_, err := r.DB.Exec(`DELETE FROM view_sessions WHERE id=?`, sid)
	return err
}

// PurgeBefore removes rows not touched since cutoff and reports how many went.
func (r *SessionRepo) PurgeBefore(cutoff time.Time) (int64, error) {
	res, err := r.DB.Exec(`DELETE FROM view_sessions WHERE updated_at < ?`, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
