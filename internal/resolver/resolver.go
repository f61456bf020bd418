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

// Package resolver discovers the set of series identities to migrate.
// The live resolvers ask the target InfluxDB for the first-seen time
// of every (measurement, hostname, service, metric) combination; the
// CSV resolver parses an Icinga check-results export instead.
package resolver

import (
	"context"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
)

// Entry is one series to migrate. EndTS is the exclusive upper bound
// for the whisper fetch, already reduced by the configured offset so
// the not-yet-finalized trailing buckets stay untouched. Unit is only
// known when the entry came from performance data.
type Entry struct {
	Identity identity.Identity
	Unit     string
	EndTS    int64
}

// A Resolver produces the full set of entries for one run. Entries
// with an invalid identity (missing hostname or metric) are returned
// as-is; the pipeline skips and counts them.
type Resolver interface {
	Resolve(ctx context.Context) ([]Entry, error)
}

// normalizeService maps an absent service tag to the host-check
// sentinel.
func normalizeService(service string) string {
	if service == "" {
		return identity.HostCheck
	}
	return service
}
