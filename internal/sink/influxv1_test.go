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
	"testing"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeV1Client records the batches handed to Write.
type fakeV1Client struct {
	batches []client.BatchPoints
	closed  bool
}

var _ client.Client = (*fakeV1Client)(nil)

func (f *fakeV1Client) Ping(time.Duration) (time.Duration, string, error) { return 0, "", nil }

func (f *fakeV1Client) Write(bp client.BatchPoints) error {
	f.batches = append(f.batches, bp)
	return nil
}

func (f *fakeV1Client) Query(client.Query) (*client.Response, error) { return &client.Response{}, nil }

func (f *fakeV1Client) QueryAsChunk(client.Query) (*client.ChunkedResponse, error) {
	return nil, nil
}

func (f *fakeV1Client) Close() error {
	f.closed = true
	return nil
}

func TestInfluxV1BatchesUntilLimit(t *testing.T) {
	ctx := context.Background()
	fake := &fakeV1Client{}
	s, err := NewInfluxV1(fake, "history", 2)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, Record{Identity: testIdentity(), Value: 1.0, Timestamp: 100}))
	assert.Empty(t, fake.batches, "no write expected below the batch size")

	require.NoError(t, s.Write(ctx, Record{Identity: testIdentity(), Value: 2.0, Timestamp: 200}))
	require.Len(t, fake.batches, 1)
	assert.Len(t, fake.batches[0].Points(), 2)
	assert.Equal(t, "history", fake.batches[0].Database())
}

func TestInfluxV1CloseFlushesButKeepsClientOpen(t *testing.T) {
	ctx := context.Background()
	fake := &fakeV1Client{}
	s, err := NewInfluxV1(fake, "history", 10)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, Record{Identity: testIdentity(), Value: 1.0, Timestamp: 100}))
	require.NoError(t, s.Close())

	require.Len(t, fake.batches, 1)
	assert.Len(t, fake.batches[0].Points(), 1)
	assert.False(t, fake.closed, "the shared client is closed by the command, not the sink")
}
