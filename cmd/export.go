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
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chrnie/convert-icinga-whisper-to-influx/config"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/pipeline"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/resolver"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/sink"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/whisperstore"
)

var (
	exportConfigFile string
	exportCSVFile    string
	exportEndTS      int64
	exportSimulate   bool
	exportVerbose    bool
	exportLogFile    string
)

func init() {
	exportCmd.Flags().StringVar(&exportConfigFile, "config", "", "Path to the configuration YAML file")
	_ = exportCmd.MarkFlagRequired("config")
	exportCmd.Flags().StringVar(&exportCSVFile, "csv", "", "Path to the check-results CSV export")
	_ = exportCmd.MarkFlagRequired("csv")
	exportCmd.Flags().Int64Var(&exportEndTS, "end-timestamp", 0, "End timestamp (unix seconds) for data extraction")
	_ = exportCmd.MarkFlagRequired("end-timestamp")
	exportCmd.Flags().BoolVar(&exportSimulate, "simulate", false, "Run in simulation mode (no files will be written)")
	exportCmd.Flags().BoolVar(&exportVerbose, "verbose", false, "Log every record that is exported")
	exportCmd.Flags().StringVar(&exportLogFile, "log-file", "", "Log file path (default: timestamped file in the working directory)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export whisper data as gzip line protocol files",
	Long: `Read the identities from a check-results CSV export and convert each
matching whisper file into a value.lp.gz next to it. Identities whose
export file already exists are skipped, so interrupted runs can simply
be restarted.`,
	RunE: runExport,
}

func runExport(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(exportConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateExport(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := setupLogging(exportVerbose, exportLogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := handleSignals(context.Background())
	defer cancel()
	ctx = logctx.WithLogger(ctx, slog.Default())

	startTS, _ := cfg.StartTimestamp()
	layout, _ := cfg.Layout()

	var tgt sink.TargetSink = sink.NewExport()
	if exportSimulate {
		tgt = sink.NewSimulate()
		slog.Info("Simulation mode: no files will be written")
	}
	defer func() { _ = tgt.Close() }()

	res := &resolver.CSV{Path: exportCSVFile, EndTS: exportEndTS}
	entries, err := res.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve identities: %w", err)
	}

	runner := &pipeline.Runner{
		Store:    whisperstore.FileStore{},
		Sink:     tgt,
		BasePath: cfg.BasePath,
		Layout:   layout,
		StartTS:  startTS,
		Verbose:  exportVerbose,
	}
	summary, err := runner.Run(ctx, entries)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d identities failed", summary.Failed, summary.Identities)
	}
	return nil
}
