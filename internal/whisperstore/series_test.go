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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uttamgandhi24/whisper-go/whisper"
)

func fp(v float64) *float64 { return &v }

func TestSeriesSamplesSkipsGaps(t *testing.T) {
	s := &Series{
		From:   100,
		Until:  500,
		Step:   100,
		Values: []*float64{fp(1.0), nil, fp(3.0), nil},
	}
	assert.Equal(t, []Sample{
		{Timestamp: 100, Value: 1.0},
		{Timestamp: 300, Value: 3.0},
	}, s.Samples())
}

func TestSeriesSamplesKeepsZero(t *testing.T) {
	s := &Series{
		From:   60,
		Until:  240,
		Step:   60,
		Values: []*float64{fp(0.0), nil, fp(2.5)},
	}
	assert.Equal(t, []Sample{
		{Timestamp: 60, Value: 0.0},
		{Timestamp: 180, Value: 2.5},
	}, s.Samples())
}

func TestSeriesSamplesEmpty(t *testing.T) {
	var s *Series
	assert.Nil(t, s.Samples())
	assert.Nil(t, (&Series{From: 10, Until: 20, Step: 10}).Samples())
}

func TestSeriesFromPoints(t *testing.T) {
	points := []whisper.Point{
		{Timestamp: 100, Value: 1.0},
		{Timestamp: 0, Value: 0}, // empty round-robin slot
		{Timestamp: 300, Value: 3.0},
	}
	s := seriesFromPoints(100, 400, points)
	assert.NotNil(t, s)
	assert.Equal(t, int64(100), s.From)
	assert.Equal(t, int64(200), s.Step)
	assert.Equal(t, []Sample{
		{Timestamp: 100, Value: 1.0},
		{Timestamp: 300, Value: 3.0},
	}, s.Samples())
}

func TestSeriesFromPointsRecoversStep(t *testing.T) {
	points := []whisper.Point{
		{Timestamp: 100, Value: 1.0},
		{Timestamp: 200, Value: 2.0},
		{Timestamp: 400, Value: 4.0},
	}
	s := seriesFromPoints(0, 1000, points)
	assert.NotNil(t, s)
	assert.Equal(t, int64(100), s.Step)
	assert.Equal(t, []Sample{
		{Timestamp: 100, Value: 1.0},
		{Timestamp: 200, Value: 2.0},
		{Timestamp: 400, Value: 4.0},
	}, s.Samples())
}

func TestSeriesFromPointsWindow(t *testing.T) {
	points := []whisper.Point{
		{Timestamp: 50, Value: 0.5}, // before window
		{Timestamp: 100, Value: 1.0},
		{Timestamp: 400, Value: 4.0}, // at the exclusive end
	}
	s := seriesFromPoints(100, 400, points)
	assert.NotNil(t, s)
	assert.Equal(t, []Sample{{Timestamp: 100, Value: 1.0}}, s.Samples())
}

func TestSeriesFromPointsNoData(t *testing.T) {
	assert.Nil(t, seriesFromPoints(100, 400, nil))
	assert.Nil(t, seriesFromPoints(100, 400, []whisper.Point{{Timestamp: 0, Value: 0}}))
}
