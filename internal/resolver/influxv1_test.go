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
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb1-client/models"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
)

// fakeV1Client serves canned query responses: one for SHOW
// MEASUREMENTS, one per measurement for the FIRST(*) group query.
type fakeV1Client struct {
	measurements *client.Response
	first        map[string]*client.Response
	queries      []client.Query
}

var _ client.Client = (*fakeV1Client)(nil)

func (f *fakeV1Client) Ping(time.Duration) (time.Duration, string, error) { return 0, "", nil }
func (f *fakeV1Client) Write(client.BatchPoints) error                    { return nil }
func (f *fakeV1Client) Close() error                                      { return nil }

func (f *fakeV1Client) QueryAsChunk(client.Query) (*client.ChunkedResponse, error) {
	return nil, nil
}

func (f *fakeV1Client) Query(q client.Query) (*client.Response, error) {
	f.queries = append(f.queries, q)
	if q.Command == "SHOW MEASUREMENTS" {
		return f.measurements, nil
	}
	for name, resp := range f.first {
		if strings.Contains(q.Command, `"`+name+`"`) {
			return resp, nil
		}
	}
	return &client.Response{}, nil
}

func TestInfluxV1Resolve(t *testing.T) {
	fake := &fakeV1Client{
		measurements: &client.Response{Results: []client.Result{{
			Series: []models.Row{{
				Name:    "measurements",
				Columns: []string{"name"},
				Values:  [][]any{{"check1"}, {"hostalive"}},
			}},
		}}},
		first: map[string]*client.Response{
			"check1": {Results: []client.Result{{
				Series: []models.Row{
					{
						Name:    "check1",
						Tags:    map[string]string{"hostname": "host1", "service": "svc1", "metric": "m1"},
						Columns: []string{"time", "first_value"},
						Values:  [][]any{{json.Number("1641773700"), json.Number("0.5")}},
					},
					{
						Name:    "check1",
						Tags:    map[string]string{"hostname": "host2", "service": "svc1", "metric": "m1"},
						Columns: []string{"time", "first_value"},
						Values:  [][]any{{json.Number("1641860100"), json.Number("1.5")}},
					},
				},
			}}},
			"hostalive": {Results: []client.Result{{
				Series: []models.Row{{
					Name:    "hostalive",
					Tags:    map[string]string{"hostname": "host1", "service": "", "metric": "rta"},
					Columns: []string{"time", "first_value"},
					Values:  [][]any{{json.Number("1641946500"), json.Number("0.08")}},
				}},
			}}},
		},
	}

	r := &InfluxV1{Client: fake, Database: "icinga2", StartDate: "2022-01-01", UntilOffset: 900}
	entries, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{
		Identity: identity.Identity{
			Hostname:     "host1",
			Service:      "svc1",
			CheckCommand: "check1",
			Metric:       "m1",
		},
		EndTS: 1641772800, // first-seen minus the offset
	}, entries[0])
	assert.Equal(t, int64(1641859200), entries[1].EndTS)

	// The host check row has no service tag.
	assert.Equal(t, identity.HostCheck, entries[2].Identity.Service)
	assert.Equal(t, "hostalive", entries[2].Identity.CheckCommand)
	assert.Equal(t, int64(1641945600), entries[2].EndTS)

	// One SHOW MEASUREMENTS plus one group query per measurement, the
	// latter bounded by the start date and in second precision.
	require.Len(t, fake.queries, 3)
	assert.Contains(t, fake.queries[1].Command, "time >= '2022-01-01'")
	assert.Contains(t, fake.queries[1].Command, `GROUP BY "hostname", "service", "metric"`)
	assert.Equal(t, "s", fake.queries[1].Precision)
}

func TestTimestampOf(t *testing.T) {
	ts, err := timestampOf(json.Number("1640995200"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1640995200), ts)

	_, err = timestampOf("2022-01-01T00:00:00Z")
	assert.ErrorContains(t, err, "unexpected time column type")

	_, err = timestampOf(json.Number("not-a-number"))
	assert.Error(t, err)
}

func TestNormalizeService(t *testing.T) {
	assert.Equal(t, identity.HostCheck, normalizeService(""))
	assert.Equal(t, "http", normalizeService("http"))
}
