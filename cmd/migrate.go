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
	"crypto/tls"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/spf13/cobra"

	"github.com/chrnie/convert-icinga-whisper-to-influx/config"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/pipeline"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/resolver"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/sink"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/whisperstore"
)

var (
	migrateConfigFile string
	migrateSimulate   bool
	migrateVerbose    bool
	migrateLogFile    string
)

func init() {
	migrateCmd.Flags().StringVar(&migrateConfigFile, "config", "", "Path to the configuration YAML file")
	_ = migrateCmd.MarkFlagRequired("config")
	migrateCmd.Flags().BoolVar(&migrateSimulate, "simulate", false, "Run in simulation mode (no data will be written)")
	migrateCmd.Flags().BoolVar(&migrateVerbose, "verbose", false, "Log every record that is written")
	migrateCmd.Flags().StringVar(&migrateLogFile, "log-file", "", "Log file path (default: timestamped file in the working directory)")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate whisper data live into InfluxDB",
	Long: `Query InfluxDB for the first-seen hostname/service/metric combinations,
read the matching whisper files, and write the historical samples into
the target database or bucket. The client generation (1.x vs 2.x) is
chosen by the configuration: a token selects 2.x.`,
	RunE: runMigrate,
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(migrateConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateLive(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := setupLogging(migrateVerbose, migrateLogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := handleSignals(context.Background())
	defer cancel()
	ctx = logctx.WithLogger(ctx, slog.Default())

	startTS, _ := cfg.StartTimestamp()
	offset, _ := cfg.UntilOffset()
	layout, _ := cfg.Layout()

	var (
		res resolver.Resolver
		tgt sink.TargetSink
	)
	if cfg.UseV2() {
		c := influxdb2.NewClientWithOptions(cfg.Influx.URL, cfg.Influx.Token,
			influxdb2.DefaultOptions().SetTLSConfig(&tls.Config{InsecureSkipVerify: true}))
		defer c.Close()
		res = &resolver.InfluxV2{
			QueryAPI:    c.QueryAPI(cfg.Influx.Org),
			Bucket:      cfg.SourceName(),
			StartDate:   cfg.StartDate,
			UntilOffset: offset,
		}
		tgt = sink.NewInfluxV2(c, cfg.Influx.Org, cfg.TargetName())
	} else {
		c, err := client.NewHTTPClient(client.HTTPConfig{
			Addr:               cfg.Influx.URL,
			Username:           cfg.Influx.User,
			Password:           cfg.Influx.Password,
			InsecureSkipVerify: true,
		})
		if err != nil {
			return fmt.Errorf("connect to InfluxDB at %s: %w", cfg.Influx.URL, err)
		}
		defer func() { _ = c.Close() }()
		res = &resolver.InfluxV1{
			Client:      c,
			Database:    cfg.SourceName(),
			StartDate:   cfg.StartDate,
			UntilOffset: offset,
		}
		tgt, err = sink.NewInfluxV1(c, cfg.TargetName(), cfg.BatchSize)
		if err != nil {
			return err
		}
	}
	slog.Info("Connected to InfluxDB", slog.String("url", cfg.Influx.URL))

	if migrateSimulate {
		tgt = sink.NewSimulate()
		slog.Info("Simulation mode: no data will be written")
	}
	defer func() { _ = tgt.Close() }()

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
		Verbose:  migrateVerbose,
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
