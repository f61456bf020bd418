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

package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
)

// InfluxV2 resolves identities from a 2.x bucket via a Flux query,
// same contract as InfluxV1: one entry per first-seen tag combination,
// cutoff derived from the first live record.
type InfluxV2 struct {
	QueryAPI    api.QueryAPI
	Bucket      string
	StartDate   string // YYYY-MM-DD
	UntilOffset int64
}

var _ Resolver = (*InfluxV2)(nil)

func (r *InfluxV2) Resolve(ctx context.Context) ([]Entry, error) {
	ll := logctx.FromContext(ctx)

	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %sT00:00:00Z)
  |> filter(fn: (r) => r._field == "value")
  |> group(columns: ["_measurement", "hostname", "service", "metric"])
  |> first()`, r.Bucket, r.StartDate)

	result, err := r.QueryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("flux query: %w", err)
	}
	defer result.Close()

	var entries []Entry
	for result.Next() {
		record := result.Record()
		entries = append(entries, Entry{
			Identity: identity.Identity{
				Hostname:     tagValue(record.ValueByKey("hostname")),
				Service:      normalizeService(tagValue(record.ValueByKey("service"))),
				CheckCommand: record.Measurement(),
				Metric:       tagValue(record.ValueByKey("metric")),
			},
			EndTS: record.Time().Unix() - r.UntilOffset,
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("flux result: %w", err)
	}
	ll.Info("Resolved series from bucket",
		slog.String("bucket", r.Bucket),
		slog.Int("series", len(entries)))
	return entries, nil
}

func tagValue(v any) string {
	s, _ := v.(string)
	return s
}
