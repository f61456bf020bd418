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

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
)

// InfluxV2 writes records to a 2.x bucket through the blocking write
// API.
type InfluxV2 struct {
	writeAPI api.WriteAPIBlocking
}

var _ TargetSink = (*InfluxV2)(nil)

func NewInfluxV2(c influxdb2.Client, org, bucket string) *InfluxV2 {
	return &InfluxV2{writeAPI: c.WriteAPIBlocking(org, bucket)}
}

func (s *InfluxV2) BeginIdentity(_ context.Context, _ identity.Identity, _ string) error {
	return nil
}

func (s *InfluxV2) Write(ctx context.Context, rec Record) error {
	if err := s.writeAPI.WritePoint(ctx, rec.Point()); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

func (s *InfluxV2) Flush(ctx context.Context) error {
	return s.writeAPI.Flush(ctx)
}

// Close is a no-op; the client is shared with the resolver and owned
// by the caller.
func (s *InfluxV2) Close() error {
	return nil
}
