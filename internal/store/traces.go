package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/mockdev/internal/calltree"
	"github.com/roach88/mockdev/internal/trace"
)

// ErrNotFound is returned when no trace matches the requested id or device.
var ErrNotFound = errors.New("trace not found")

// TraceInfo describes a stored trace without its body.
type TraceInfo struct {
	ID     string `json:"id"`
	Device string `json:"device"`
	Seq    int64  `json:"seq"`
	Nodes  int    `json:"nodes"`
}

// SaveTrace serializes tree and stores it under a fresh id. The row gets the
// next seq in the library.
func (s *Store) SaveTrace(ctx context.Context, device string, tree *calltree.Tree) (TraceInfo, error) {
	if strings.TrimSpace(device) == "" {
		return TraceInfo{}, fmt.Errorf("save trace: device is required")
	}
	body := trace.Marshal(tree)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TraceInfo{}, fmt.Errorf("save trace: begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM traces`).Scan(&seq); err != nil {
		return TraceInfo{}, fmt.Errorf("save trace: next seq: %w", err)
	}

	info := TraceInfo{
		ID:     s.ids.Generate(),
		Device: device,
		Seq:    seq,
		Nodes:  tree.Len(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO traces (id, device, seq, node_count, body)
		VALUES (?, ?, ?, ?, ?)
	`, info.ID, info.Device, info.Seq, info.Nodes, string(body))
	if err != nil {
		return TraceInfo{}, fmt.Errorf("save trace: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return TraceInfo{}, fmt.Errorf("save trace: commit: %w", err)
	}
	return info, nil
}

// LoadTrace parses the stored body of id. A body that fails to parse is
// reported as a MALFORMED_TRACE error.
func (s *Store) LoadTrace(ctx context.Context, id string) (*calltree.Tree, error) {
	body, err := s.TraceBody(ctx, id)
	if err != nil {
		return nil, err
	}
	tree, err := trace.Unmarshal([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", id, err)
	}
	return tree, nil
}

// TraceBody returns the stored text of id unparsed.
func (s *Store) TraceBody(ctx context.Context, id string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM traces WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("read trace %s: %w", id, err)
	}
	return body, nil
}

// GetTrace returns the metadata of id.
func (s *Store) GetTrace(ctx context.Context, id string) (TraceInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, device, seq, node_count FROM traces WHERE id = ?
	`, id)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TraceInfo{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return TraceInfo{}, fmt.Errorf("read trace %s: %w", id, err)
	}
	return info, nil
}

// LatestTrace returns the most recently saved trace of device.
func (s *Store) LatestTrace(ctx context.Context, device string) (TraceInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, device, seq, node_count FROM traces
		WHERE device = ?
		ORDER BY seq DESC, id ASC COLLATE BINARY
		LIMIT 1
	`, device)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TraceInfo{}, fmt.Errorf("%w: device %s", ErrNotFound, device)
	}
	if err != nil {
		return TraceInfo{}, fmt.Errorf("latest trace of %s: %w", device, err)
	}
	return info, nil
}

// ListTraces returns every stored trace in seq order.
func (s *Store) ListTraces(ctx context.Context) ([]TraceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device, seq, node_count FROM traces
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()

	var out []TraceInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("list traces: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	return out, nil
}

// DeleteTrace removes id from the library.
func (s *Store) DeleteTrace(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM traces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trace %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete trace %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (TraceInfo, error) {
	var info TraceInfo
	err := row.Scan(&info.ID, &info.Device, &info.Seq, &info.Nodes)
	return info, err
}
