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

// Package pipeline runs the conversion: for every resolved identity,
// derive the whisper path, read the samples in the window, and hand
// each retained sample to the target sink. Identities are processed
// strictly one after another; a failure is recorded and the run
// continues.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/resolver"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/sink"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/whisperstore"
)

// Outcome classifies what happened to one identity.
type Outcome string

const (
	// OutcomeConverted means samples were read and emitted.
	OutcomeConverted Outcome = "converted"
	// OutcomeMissing means the derived whisper path does not exist.
	OutcomeMissing Outcome = "missing"
	// OutcomeSkipped covers invalid identities, empty ranges, and
	// identities whose export file already exists.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the store or the sink reported an error.
	OutcomeFailed Outcome = "failed"
)

// Result is the per-identity account the run keeps instead of letting
// individual failures abort the process.
type Result struct {
	Entry   resolver.Entry
	Outcome Outcome
	Points  int
	Err     error
}

// Summary aggregates the results of one run.
type Summary struct {
	Identities int
	Converted  int
	Missing    int
	Skipped    int
	Failed     int
	Points     int
}

func (s *Summary) add(res Result) {
	s.Identities++
	s.Points += res.Points
	switch res.Outcome {
	case OutcomeConverted:
		s.Converted++
	case OutcomeMissing:
		s.Missing++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// LogValue lets the summary appear as one structured group in the
// final log line.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("identities", s.Identities),
		slog.Int("converted", s.Converted),
		slog.Int("missing", s.Missing),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
		slog.Int("points", s.Points),
	)
}

// Runner drives one conversion run.
type Runner struct {
	Store    whisperstore.Store
	Sink     sink.TargetSink
	BasePath string
	Layout   identity.Layout
	StartTS  int64
	// Verbose echoes every record's line protocol at debug level.
	Verbose bool
}

// Run converts all entries sequentially. It stops early only on
// context cancellation; everything else is accounted per identity.
func (r *Runner) Run(ctx context.Context, entries []resolver.Entry) (Summary, error) {
	ll := logctx.FromContext(ctx)

	var summary Summary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := r.convert(ctx, entry)
		summary.add(res)

		attrs := []any{
			slog.String("identity", res.Entry.Identity.String()),
			slog.String("outcome", string(res.Outcome)),
			slog.Int("points", res.Points),
		}
		if res.Err != nil {
			attrs = append(attrs, slog.Any("error", res.Err))
		}
		ll.Info("Processed identity", attrs...)
	}

	ll.Info("Run complete", slog.Any("summary", summary))
	return summary, nil
}

func (r *Runner) convert(ctx context.Context, entry resolver.Entry) Result {
	ll := logctx.FromContext(ctx)
	res := Result{Entry: entry}

	if !entry.Identity.Valid() {
		ll.Warn("Skipping identity with missing tags",
			slog.String("hostname", entry.Identity.Hostname),
			slog.String("service", entry.Identity.Service),
			slog.String("metric", entry.Identity.Metric))
		res.Outcome = OutcomeSkipped
		return res
	}

	path := identity.WhisperPath(r.BasePath, r.Layout, entry.Identity)
	if _, err := os.Stat(path); err != nil {
		ll.Warn("No value.wsp file found (missing)",
			slog.String("path", path),
			slog.String("metric", entry.Identity.Metric),
			slog.String("service", entry.Identity.Service),
			slog.String("checkcommand", entry.Identity.CheckCommand))
		res.Outcome = OutcomeMissing
		return res
	}

	if err := r.Sink.BeginIdentity(ctx, entry.Identity, path); err != nil {
		if errors.Is(err, sink.ErrAlreadyExported) {
			ll.Info("Export file already exists, skipping conversion",
				slog.String("path", path))
			res.Outcome = OutcomeSkipped
			return res
		}
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}

	series, err := r.Store.Fetch(path, r.StartTS, entry.EndTS)
	if err != nil {
		if errors.Is(err, whisperstore.ErrNoData) {
			ll.Warn("No data points found in range", slog.String("path", path))
			res.Outcome = OutcomeSkipped
			return res
		}
		ll.Error("Failed to read whisper file",
			slog.String("path", path),
			slog.Any("error", err))
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}

	for _, sample := range series.Samples() {
		rec := sink.Record{
			Identity:  entry.Identity,
			Value:     sample.Value,
			Unit:      entry.Unit,
			Timestamp: sample.Timestamp,
		}
		if r.Verbose {
			ll.Debug("Record", slog.String("line", strings.TrimSuffix(rec.LineProtocol(), "\n")))
		}
		if err := r.Sink.Write(ctx, rec); err != nil {
			res.Outcome = OutcomeFailed
			res.Err = err
			return res
		}
		res.Points++
	}

	if err := r.Sink.Flush(ctx); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	res.Outcome = OutcomeConverted
	return res
}
