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
	"log/slog"
	"strings"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
)

// Simulate renders every record exactly like a live sink would but
// never performs a write. It never fails.
type Simulate struct {
	points int
}

var _ TargetSink = (*Simulate)(nil)

func NewSimulate() *Simulate {
	return &Simulate{}
}

func (s *Simulate) BeginIdentity(_ context.Context, _ identity.Identity, _ string) error {
	return nil
}

func (s *Simulate) Write(ctx context.Context, rec Record) error {
	s.points++
	logctx.FromContext(ctx).Debug("Simulated write",
		slog.String("line", strings.TrimSuffix(rec.LineProtocol(), "\n")))
	return nil
}

func (s *Simulate) Flush(_ context.Context) error {
	return nil
}

func (s *Simulate) Close() error {
	return nil
}

// Points reports how many records were formatted during the run.
func (s *Simulate) Points() int {
	return s.points
}
