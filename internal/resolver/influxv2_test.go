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
	"io"
	"strings"
	"testing"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
)

// fakeQueryAPI serves one canned annotated-CSV flux response.
type fakeQueryAPI struct {
	body  string
	query string
}

var _ api.QueryAPI = (*fakeQueryAPI)(nil)

func (f *fakeQueryAPI) Query(_ context.Context, query string) (*api.QueryTableResult, error) {
	f.query = query
	return api.NewQueryTableResult(io.NopCloser(strings.NewReader(f.body))), nil
}

func (f *fakeQueryAPI) QueryWithParams(ctx context.Context, query string, _ interface{}) (*api.QueryTableResult, error) {
	return f.Query(ctx, query)
}

func (f *fakeQueryAPI) QueryRaw(context.Context, string, *domain.Dialect) (string, error) {
	return "", nil
}

func (f *fakeQueryAPI) QueryRawWithParams(context.Context, string, *domain.Dialect, interface{}) (string, error) {
	return "", nil
}

const fluxFirstResponse = `#datatype,string,long,dateTime:RFC3339,dateTime:RFC3339,dateTime:RFC3339,double,string,string,string,string,string
#group,false,false,true,true,false,false,true,true,true,true,true
#default,_result,,,,,,,,,,
,result,table,_start,_stop,_time,_value,_field,_measurement,hostname,metric,service
,,0,2022-01-01T00:00:00Z,2022-06-01T00:00:00Z,2022-01-10T00:15:00Z,0.5,value,check1,host1,m1,svc1
,,1,2022-01-01T00:00:00Z,2022-06-01T00:00:00Z,2022-01-12T00:15:00Z,0.08,value,hostalive,host2,rta,
`

func TestInfluxV2Resolve(t *testing.T) {
	fake := &fakeQueryAPI{body: fluxFirstResponse}
	r := &InfluxV2{QueryAPI: fake, Bucket: "icinga2", StartDate: "2022-01-01", UntilOffset: 900}

	entries, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{
		Identity: identity.Identity{
			Hostname:     "host1",
			Service:      "svc1",
			CheckCommand: "check1",
			Metric:       "m1",
		},
		EndTS: 1641772800, // first-seen minus the offset
	}, entries[0])

	// The host check row has no service tag.
	assert.Equal(t, identity.HostCheck, entries[1].Identity.Service)
	assert.Equal(t, "hostalive", entries[1].Identity.CheckCommand)
	assert.Equal(t, int64(1641945600), entries[1].EndTS)

	assert.Contains(t, fake.query, `from(bucket: "icinga2")`)
	assert.Contains(t, fake.query, "range(start: 2022-01-01T00:00:00Z)")
	assert.Contains(t, fake.query, "first()")
}
