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

// Package perfdata parses the Icinga performance-data strings found in
// the `state.performance_data` column of a check-results export. Each
// `key=value` token contributes one metric name candidate; the values
// themselves only matter for the optional unit suffix.
package perfdata

import (
	"regexp"
	"strings"
)

// Metric is one candidate parsed from a performance-data string. Name
// is the original label with surrounding quotes stripped; Unit is the
// suffix after the numeric part of the value, if any ("ms", "B", "%").
type Metric struct {
	Name string
	Unit string
}

// Tokens are label=value, delimited by whitespace or semicolons;
// labels may be single-quote wrapped to admit spaces and other
// specials. The value stops at the first semicolon so that the
// warn/crit/min/max thresholds never swallow the next token.
var (
	tokenRe = regexp.MustCompile(`((?:'[^']*'|[^=;\s]+))=([^;\s]+)`)
	unitRe  = regexp.MustCompile(`^-?[0-9.]+([a-zA-Z%]*)`)
)

// Parse extracts the metric candidates from a performance-data string,
// in order of appearance. Duplicate labels keep the first occurrence.
func Parse(perf string) []Metric {
	matches := tokenRe.FindAllStringSubmatch(perf, -1)
	if len(matches) == 0 {
		return nil
	}

	metrics := make([]Metric, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		name := strings.Trim(m[1], "'")
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		metrics = append(metrics, Metric{Name: name, Unit: unitOf(m[2])})
	}
	return metrics
}

// unitOf pulls the unit suffix out of a value token.
func unitOf(value string) string {
	m := unitRe.FindStringSubmatch(value)
	if m == nil {
		return ""
	}
	return m[1]
}
