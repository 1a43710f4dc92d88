package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/queryir"
	"github.com/roach88/blockdoc/internal/querysql"
)

// FindBlocks runs a block query against the latest revision of each
// document. itemsKey names the layout's id list. Returns an empty slice
// (not nil) when nothing matches.
func (s *Store) FindBlocks(ctx context.Context, q queryir.Query, itemsKey string) ([]BlockMatch, error) {
	query, params, err := querysql.NewSQLCompiler(itemsKey).Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find blocks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find blocks: %w", err)
	}
	defer rows.Close()

	matches := []BlockMatch{}
	for rows.Next() {
		var (
			m       BlockMatch
			blockID string
			data    sql.NullString
		)
		if err := rows.Scan(&m.DocumentID, &m.Seq, &m.Index, &blockID, &data); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		m.BlockID = ir.BlockID(blockID)
		if data.Valid {
			obj, err := ir.ParseObject([]byte(data.String))
			if err != nil {
				return nil, fmt.Errorf("block %q of %s: %w", blockID, m.DocumentID, err)
			}
			m.Data = obj
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return matches, nil
}
