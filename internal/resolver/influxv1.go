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
	"encoding/json"
	"fmt"
	"log/slog"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
)

// InfluxV1 resolves identities from a 1.x database that is already
// receiving live Icinga data. Each measurement is the check command;
// grouping by the hostname/service/metric tags and taking the first
// record per group yields both the identity set and the per-identity
// cutoff (first live record minus the configured offset).
type InfluxV1 struct {
	Client      client.Client
	Database    string
	StartDate   string // YYYY-MM-DD, bounds the group query
	UntilOffset int64  // seconds subtracted from the first-seen time
}

var _ Resolver = (*InfluxV1)(nil)

func (r *InfluxV1) Resolve(ctx context.Context) ([]Entry, error) {
	ll := logctx.FromContext(ctx)

	measurements, err := r.measurements()
	if err != nil {
		return nil, err
	}
	ll.Info("Found measurements", slog.Int("count", len(measurements)))

	var entries []Entry
	for _, measurement := range measurements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := r.resolveMeasurement(measurement)
		if err != nil {
			return nil, err
		}
		ll.Info("Resolved measurement",
			slog.String("measurement", measurement),
			slog.Int("series", len(found)))
		entries = append(entries, found...)
	}
	return entries, nil
}

func (r *InfluxV1) measurements() ([]string, error) {
	resp, err := r.Client.Query(client.NewQuery("SHOW MEASUREMENTS", r.Database, ""))
	if err != nil {
		return nil, fmt.Errorf("show measurements: %w", err)
	}
	if resp.Error() != nil {
		return nil, fmt.Errorf("show measurements: %w", resp.Error())
	}

	var names []string
	for _, result := range resp.Results {
		for _, row := range result.Series {
			for _, values := range row.Values {
				if len(values) == 0 {
					continue
				}
				if name, ok := values[0].(string); ok {
					names = append(names, name)
				}
			}
		}
	}
	return names, nil
}

func (r *InfluxV1) resolveMeasurement(measurement string) ([]Entry, error) {
	q := fmt.Sprintf(
		`SELECT FIRST(*) FROM %q WHERE time >= '%s' GROUP BY "hostname", "service", "metric"`,
		measurement, r.StartDate)
	resp, err := r.Client.Query(client.NewQuery(q, r.Database, "s"))
	if err != nil {
		return nil, fmt.Errorf("query measurement %s: %w", measurement, err)
	}
	if resp.Error() != nil {
		return nil, fmt.Errorf("query measurement %s: %w", measurement, resp.Error())
	}

	var entries []Entry
	for _, result := range resp.Results {
		for _, row := range result.Series {
			if len(row.Values) == 0 || len(row.Values[0]) == 0 {
				continue
			}
			firstSeen, err := timestampOf(row.Values[0][0])
			if err != nil {
				return nil, fmt.Errorf("measurement %s: %w", measurement, err)
			}
			entries = append(entries, Entry{
				Identity: identity.Identity{
					Hostname:     row.Tags["hostname"],
					Service:      normalizeService(row.Tags["service"]),
					CheckCommand: measurement,
					Metric:       row.Tags["metric"],
				},
				EndTS: firstSeen - r.UntilOffset,
			})
		}
	}
	return entries, nil
}

// timestampOf parses the time column of a query response. With second
// precision the value arrives as a json.Number of unix seconds.
func timestampOf(v any) (int64, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("unexpected time column type %T", v)
	}
	ts, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("parse time column: %w", err)
	}
	return ts, nil
}
