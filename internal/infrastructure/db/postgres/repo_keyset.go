package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/lib/pq"
)

// sortExpr is the SQL expression behind each sort field. Only these fixed strings
// are ever interpolated into a query.
func sortExpr(f domain.SortField) (string, bool) {
	switch f {
	case domain.SortID:
		return "e.id", true
	case domain.SortCreatedAt:
		return "e.created_at", true
	case domain.SortStartDate:
		return "e.start_at", true
	case domain.SortRecruitmentDeadline:
		return "e.recruitment_end_at", true
	case domain.SortViewCount:
		return "COALESCE(vc.view_count, 0)", true
	}
	return "", false
}

// ListPage runs one keyset page. The id tie-break is always descending, so the
// "rows after the cursor" predicate is
//
//	field <op> $k OR (field = $k AND id < $id)
//
// with <op> being > for ascending and < for descending fields.
func (r *Repo) ListPage(ctx context.Context, q event.PageQuery) ([]*domain.Event, error) {
	expr, ok := sortExpr(q.Sort)
	if !ok {
		return nil, domain.ErrInvalidSortField(q.Sort, "unsupported sort field")
	}

	where, args, argN := buildBaseWhere(q.Filter)
	if q.Sort == domain.SortRecruitmentDeadline {
		where = append(where, "e.recruitment_end_at IS NOT NULL")
	}

	if q.After != nil {
		if q.After.SortField() != q.Sort {
			return nil, domain.ErrInvalidSortField(q.Sort, "cursor does not match sort field")
		}
		key, id := q.After.Position()
		if q.Sort == domain.SortID {
			where = append(where, fmt.Sprintf("e.id < $%d", argN))
			args = append(args, id)
			argN++
		} else {
			op := ">"
			if q.Descending {
				op = "<"
			}
			where = append(where, fmt.Sprintf("(%s %s $%d OR (%s = $%d AND e.id < $%d))",
				expr, op, argN, expr, argN, argN+1))
			args = append(args, key, id)
			argN += 2
		}
	}

	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	orderBy := "e.id DESC"
	if q.Sort != domain.SortID {
		orderBy = expr + " " + dir + ", e.id DESC"
	}

	query := `SELECT` + eventColumns + eventFrom + `
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY ` + orderBy + `
LIMIT $` + fmt.Sprintf("%d", argN)
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func buildBaseWhere(f event.SearchFilter) ([]string, []any, int) {
	where := []string{}
	args := []any{}
	argN := 1

	add := func(condFmt string, v any) {
		where = append(where, fmt.Sprintf(condFmt, argN))
		args = append(args, v)
		argN++
	}

	switch {
	case f.Status != "":
		add("e.status = $%d", string(f.Status))
	case f.StatusGroup != "":
		add("e.status_group = $%d", string(f.StatusGroup))
	default:
		// unfiltered listings never leak the moderation queue
		where = append(where, "e.status <> 'PENDING'")
	}

	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		add("e.type = ANY($%d)", pq.Array(types))
	}
	if f.HostID != "" {
		add("e.host_id = $%d", f.HostID)
	}
	if kw := escapeLike(f.Keyword); kw != "" {
		add(`e.title ILIKE $%d ESCAPE '\'`, "%"+kw+"%")
	}
	if f.BookmarkedOnly {
		add("EXISTS (SELECT 1 FROM bookmarks b WHERE b.event_id = e.id AND b.user_id = $%d)", f.ViewerID)
	}

	return where, args, argN
}

func escapeLike(s string) string {
	s = strings.TrimSpace(s)
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
