package store

import (
	"context"
	"os"

	"github.com/rcliao/agentmem/internal/model"
)

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		Backend:      "sqlite",
		DBPath:       s.path,
		ByKind:       map[string]int{},
		ByImportance: map[string]int{},
		Projects:     []ProjectStats{},
	}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalItems); err != nil {
		return st, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM memories GROUP BY kind`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var kind string
		var n int
		rows.Scan(&kind, &n)
		st.ByKind[kind] = n
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT importance, COUNT(*) FROM memories GROUP BY importance`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var imp, n int
		rows.Scan(&imp, &n)
		st.ByImportance[model.Importance(imp).String()] = n
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT project_id, COUNT(*) AS cnt, COUNT(DISTINCT agent_id)
		FROM memories GROUP BY project_id ORDER BY cnt DESC, project_id`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var ps ProjectStats
		rows.Scan(&ps.ProjectID, &ps.Count, &ps.Agents)
		st.Projects = append(st.Projects, ps)
	}
	return st, nil
}
