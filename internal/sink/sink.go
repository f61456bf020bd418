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

// Package sink writes output records to their destination: a 1.x
// database, a 2.x bucket, a gzip line-protocol export next to the
// source file, or nowhere at all in simulation mode.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
)

// ErrAlreadyExported is returned by BeginIdentity when the export file
// for the identity already exists; the pipeline skips reconversion.
var ErrAlreadyExported = errors.New("already exported")

// Record is one output sample. The measurement is the check command;
// hostname, metric, and service become tags; value (plus unit, when
// known) become fields.
type Record struct {
	Identity  identity.Identity
	Value     float64
	Unit      string
	Timestamp int64
}

// Point builds the record's write point. Tags and fields are sorted so
// the wire encoding is stable.
func (r Record) Point() *write.Point {
	tags := map[string]string{
		"hostname": r.Identity.Hostname,
		"metric":   r.Identity.Metric,
		"service":  r.Identity.Service,
	}
	fields := map[string]any{"value": r.Value}
	if r.Unit != "" {
		fields["unit"] = r.Unit
	}
	p := write.NewPoint(r.Identity.CheckCommand, tags, fields, time.Unix(r.Timestamp, 0).UTC())
	p.SortTags()
	p.SortFields()
	return p
}

// LineProtocol renders the record in line protocol with second
// precision, including the trailing newline.
func (r Record) LineProtocol() string {
	return write.PointToLineProtocol(r.Point(), time.Second)
}

// A TargetSink receives the records of one run, one identity at a
// time: BeginIdentity, the identity's Writes, then Flush. Close ends
// the run.
type TargetSink interface {
	BeginIdentity(ctx context.Context, id identity.Identity, wspPath string) error
	Write(ctx context.Context, rec Record) error
	Flush(ctx context.Context) error
	Close() error
}
