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

package whisperstore

import (
	"fmt"
	"time"

	"github.com/uttamgandhi24/whisper-go/whisper"
)

// FileStore reads whisper files from the local filesystem.
type FileStore struct{}

var _ Store = FileStore{}

// Fetch opens the whisper file at path and returns the series between
// from and until. The library hands back explicit (timestamp, value)
// points for the filled slots of the selected archive; they are folded
// back into the dense representation here.
func (FileStore) Fetch(path string, from, until int64) (*Series, error) {
	w, err := whisper.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open whisper file %s: %w", path, err)
	}
	defer w.Close()

	_, points, err := w.FetchUntilTime(time.Unix(from, 0), time.Unix(until, 0))
	if err != nil {
		return nil, fmt.Errorf("fetch %s [%d,%d): %w", path, from, until, err)
	}

	series := seriesFromPoints(from, until, points)
	if series == nil {
		return nil, ErrNoData
	}
	return series, nil
}

// seriesFromPoints rebuilds the dense series from explicit points.
// Empty round-robin slots come back with a zero timestamp and are
// dropped; points outside [from, until) are dropped too, so the
// trailing not-yet-finalized buckets never leak through. The step is
// recovered from the smallest gap between retained points.
func seriesFromPoints(from, until int64, points []whisper.Point) *Series {
	var kept []Sample
	for _, p := range points {
		ts := int64(p.Timestamp)
		if ts == 0 || ts < from || ts >= until {
			continue
		}
		kept = append(kept, Sample{Timestamp: ts, Value: p.Value})
	}
	if len(kept) == 0 {
		return nil
	}

	first := kept[0].Timestamp
	last := kept[len(kept)-1].Timestamp

	var step int64
	for i := 1; i < len(kept); i++ {
		d := kept[i].Timestamp - kept[i-1].Timestamp
		if d > 0 && (step == 0 || d < step) {
			step = d
		}
	}
	if step == 0 {
		// Single retained point; the step only has to be positive.
		step = 1
	}

	s := &Series{
		From:   first,
		Until:  last + step,
		Step:   step,
		Values: make([]*float64, (last-first)/step+1),
	}
	for i := range kept {
		idx := (kept[i].Timestamp - first) / step
		v := kept[i].Value
		s.Values[idx] = &v
	}
	return s
}
