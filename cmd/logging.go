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

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

// setupLogging configures the default slog logger to fan out to stdout
// and a per-run log file, tagged with a run ID so interleaved runs can
// be told apart. The returned function closes the log file.
func setupLogging(debug bool, logFile string) (func(), error) {
	var opts *slog.HandlerOptions
	if debug {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}

	if logFile == "" {
		logFile = fmt.Sprintf("whisper-to-influx_%s.log", time.Now().UTC().Format("20060102_150405"))
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", logFile, err)
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(
		slog.NewTextHandler(os.Stdout, opts),
		slog.NewTextHandler(f, opts),
	)).With(
		slog.String("run_id", uuid.NewString()),
	))

	return func() { _ = f.Close() }, nil
}
