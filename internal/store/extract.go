package store

import (
	"context"
	"fmt"

	"workdays/pkg/workdays"
)

// ExtractMasks reads the series at in, evaluates the three calendar masks
// for every timestamp and writes them to out. Output rows keep the input
// timestamps as read; masks use the second each one falls in. It returns the
// number of rows.
func ExtractMasks(ctx context.Context, c *workdays.Calendar, s SeriesStore, in, out string) (int, error) {
	ms, err := s.ReadMillis(ctx, in)
	if err != nil {
		return 0, err
	}
	ts := make([]int64, len(ms))
	for i, v := range ms {
		ts[i] = floorMillis(v)
	}

	masks := make([][]bool, 0, 3)
	for _, kind := range []workdays.MaskKind{workdays.MaskDay, workdays.MaskSession, workdays.MaskDaySession} {
		m, err := c.MaskUnix(ts, kind)
		if err != nil {
			return 0, fmt.Errorf("%s mask: %w", kind, err)
		}
		masks = append(masks, m)
	}

	rows := make([]MaskRecord, len(ms))
	for i, v := range ms {
		rows[i] = MaskRecord{
			Timestamp:       v,
			BusinessDay:     masks[0][i],
			InSession:       masks[1][i],
			BusinessSession: masks[2][i],
		}
	}
	if err := s.WriteMasks(ctx, out, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
