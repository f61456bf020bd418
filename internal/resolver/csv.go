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
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/perfdata"
)

// csvHeader is the required prefix of the export's header row.
var csvHeader = []string{"host.name", "name", "checkcommand_name", "state.performance_data"}

// CSV resolves identities from an Icinga check-results export. Every
// key in a row's performance-data string becomes one candidate metric.
// All entries share the end timestamp given on the command line.
type CSV struct {
	Path  string
	EndTS int64
}

var _ Resolver = (*CSV)(nil)

func (r *CSV) Resolve(ctx context.Context) ([]Entry, error) {
	ll := logctx.FromContext(ctx)

	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var entries []Entry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(row) < len(csvHeader) {
			ll.Warn("Skipping short CSV row", slog.Int("columns", len(row)))
			continue
		}

		hostname, service, checkcommand, perf := row[0], row[1], row[2], row[3]
		for _, metric := range perfdata.Parse(perf) {
			entries = append(entries, Entry{
				Identity: identity.Identity{
					Hostname:     hostname,
					Service:      normalizeService(service),
					CheckCommand: checkcommand,
					Metric:       metric.Name,
				},
				Unit:  metric.Unit,
				EndTS: r.EndTS,
			})
		}
	}
	return entries, nil
}

func checkHeader(header []string) error {
	if len(header) < len(csvHeader) {
		return fmt.Errorf("csv header too short: got %d columns, want at least %d", len(header), len(csvHeader))
	}
	for i, want := range csvHeader {
		if header[i] != want {
			return fmt.Errorf("csv header mismatch at column %d: got %q, want %q", i, header[i], want)
		}
	}
	return nil
}
