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

package perfdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected []Metric
	}{
		{
			name:     "empty string",
			in:       "",
			expected: nil,
		},
		{
			name:     "single metric",
			in:       "load1=0.5",
			expected: []Metric{{Name: "load1"}},
		},
		{
			name: "multiple metrics",
			in:   "load1=0.5 load5=0.4 load15=0.3",
			expected: []Metric{
				{Name: "load1"}, {Name: "load5"}, {Name: "load15"},
			},
		},
		{
			name: "quoted label and semicolon delimiter",
			in:   "'m 1'=5;m2=10",
			expected: []Metric{
				{Name: "m 1"}, {Name: "m2"},
			},
		},
		{
			name: "quoted and plain labels",
			in:   "'used bytes'=1024B free=42",
			expected: []Metric{
				{Name: "used bytes", Unit: "B"}, {Name: "free"},
			},
		},
		{
			name: "unit suffixes",
			in:   "rta=0.08ms pl=0% size=10MB",
			expected: []Metric{
				{Name: "rta", Unit: "ms"}, {Name: "pl", Unit: "%"}, {Name: "size", Unit: "MB"},
			},
		},
		{
			name: "thresholds ignored for unit",
			in:   "time=10ms;20;30;0;100",
			expected: []Metric{
				{Name: "time", Unit: "ms"},
			},
		},
		{
			name: "duplicate labels keep first",
			in:   "a=1s a=2ms b=3",
			expected: []Metric{
				{Name: "a", Unit: "s"}, {Name: "b"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Parse(tc.in))
		})
	}
}
