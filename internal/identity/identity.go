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

// Package identity models the (host, service, checkcommand, metric)
// tuple that names one series in both the whisper tree and InfluxDB,
// and derives the on-disk whisper path for it.
package identity

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// HostCheck is the sentinel service name Icinga uses for host-level
// checks. It changes the path shape under the host-aware layout.
const HostCheck = "HOSTCHECK"

// Identity names one series. Immutable once resolved.
type Identity struct {
	Hostname     string
	Service      string
	CheckCommand string
	Metric       string
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", id.Hostname, id.Service, id.CheckCommand, id.Metric)
}

// Valid reports whether the identity carries the tags required to
// locate a whisper file. Service may be empty; callers normalize it
// to HostCheck before path derivation.
func (id Identity) Valid() bool {
	return id.Hostname != "" && id.Metric != ""
}

// Layout selects how the second path segment is chosen. The Icinga
// graphite writer used the host/services split; one generation of the
// exported trees used "services" for everything.
type Layout string

const (
	LayoutHostAware    Layout = "host-aware"
	LayoutServicesOnly Layout = "services-only"
)

// ParseLayout validates a configured layout string. An empty value
// selects the host-aware layout.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "":
		return LayoutHostAware, nil
	case LayoutHostAware, LayoutServicesOnly:
		return Layout(s), nil
	default:
		return "", fmt.Errorf("unknown path layout %q (want %q or %q)", s, LayoutHostAware, LayoutServicesOnly)
	}
}

var unsafeRuns = regexp.MustCompile(`[\\/\s.]+`)

// Sanitize maps a raw Icinga object name to the form the graphite
// writer used on disk. Every maximal run of backslash, slash,
// whitespace, or dot characters collapses to a single underscore.
// The "::" separator becomes a path separator when allowSlash is set
// (metric names only), otherwise an underscore.
func Sanitize(name string, allowSlash bool) string {
	name = unsafeRuns.ReplaceAllString(name, "_")
	if allowSlash {
		return strings.ReplaceAll(name, "::", "/")
	}
	return strings.ReplaceAll(name, "::", "_")
}

// WhisperPath derives the whisper file path for id under base. Pure;
// callers stat the result themselves. The check command is used
// verbatim, matching the on-disk trees the exporter produced.
func WhisperPath(base string, layout Layout, id Identity) string {
	segment := "services"
	if layout == LayoutHostAware && id.Service == HostCheck {
		segment = "host"
	}
	return filepath.Join(
		base,
		Sanitize(id.Hostname, false),
		segment,
		Sanitize(id.Service, false),
		id.CheckCommand,
		"perfdata",
		Sanitize(id.Metric, true),
		"value.wsp",
	)
}
