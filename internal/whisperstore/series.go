// Copyright (C) 2025 chrnie
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package whisperstore reads samples out of the fixed-step round-robin
// whisper files the graphite writer produced. The on-disk format is
// handled by the whisper library; this package reduces what it returns
// to a dense series plus gap-skipping sample iteration.
package whisperstore

import "errors"

// ErrNoData is returned by a Store when the file holds no samples in
// the requested range.
var ErrNoData = errors.New("no data points in range")

// Sample is one retained measurement. Timestamps are unix seconds.
type Sample struct {
	Timestamp int64
	Value     float64
}

// Series is the dense form a whisper fetch returns: a fixed step and
// one slot per step between From and Until. A nil slot is a gap (the
// round-robin file never stored a value there); a stored zero is a
// real measurement and is kept.
type Series struct {
	From   int64
	Until  int64
	Step   int64
	Values []*float64
}

// Samples reconstructs the retained samples, oldest first. Slot i has
// timestamp From + i*Step; nil slots are skipped, never emitted as
// zero or interpolated.
func (s *Series) Samples() []Sample {
	if s == nil || s.Step <= 0 {
		return nil
	}
	out := make([]Sample, 0, len(s.Values))
	for i, v := range s.Values {
		if v == nil {
			continue
		}
		out = append(out, Sample{Timestamp: s.From + int64(i)*s.Step, Value: *v})
	}
	return out
}

// Store fetches the series stored at path between from (inclusive)
// and until (exclusive). Returns ErrNoData when the range is empty.
type Store interface {
	Fetch(path string, from, until int64) (*Series, error)
}
