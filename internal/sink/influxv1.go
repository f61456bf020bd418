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

package sink

import (
	"context"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
)

// DefaultBatchSize bounds how many points a single 1.x write carries.
const DefaultBatchSize = 5000

// InfluxV1 writes records to a 1.x database through the batched
// points API.
type InfluxV1 struct {
	client    client.Client
	database  string
	batchSize int
	batch     client.BatchPoints
}

var _ TargetSink = (*InfluxV1)(nil)

func NewInfluxV1(c client.Client, database string, batchSize int) (*InfluxV1, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	s := &InfluxV1{client: c, database: database, batchSize: batchSize}
	if err := s.newBatch(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *InfluxV1) newBatch() error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("new batch: %w", err)
	}
	s.batch = bp
	return nil
}

func (s *InfluxV1) BeginIdentity(_ context.Context, _ identity.Identity, _ string) error {
	return nil
}

func (s *InfluxV1) Write(ctx context.Context, rec Record) error {
	fields := map[string]any{"value": rec.Value}
	if rec.Unit != "" {
		fields["unit"] = rec.Unit
	}
	pt, err := client.NewPoint(
		rec.Identity.CheckCommand,
		map[string]string{
			"hostname": rec.Identity.Hostname,
			"metric":   rec.Identity.Metric,
			"service":  rec.Identity.Service,
		},
		fields,
		time.Unix(rec.Timestamp, 0).UTC(),
	)
	if err != nil {
		return fmt.Errorf("new point: %w", err)
	}

	s.batch.AddPoint(pt)
	if len(s.batch.Points()) >= s.batchSize {
		return s.Flush(ctx)
	}
	return nil
}

func (s *InfluxV1) Flush(_ context.Context) error {
	if len(s.batch.Points()) == 0 {
		return nil
	}
	if err := s.client.Write(s.batch); err != nil {
		return fmt.Errorf("write batch of %d points: %w", len(s.batch.Points()), err)
	}
	return s.newBatch()
}

// Close flushes any remaining batched points. The client is shared
// with the resolver and owned by the caller; it stays open.
func (s *InfluxV1) Close() error {
	return s.Flush(context.Background())
}
