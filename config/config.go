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

// Package config loads the migration configuration from the YAML file
// named on the command line. Environment variables with the prefix
// "WHISPER2INFLUX" override file values; the dot in a key becomes an
// underscore, so "influxdb.token" is "WHISPER2INFLUX_INFLUXDB_TOKEN".
package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
)

// InfluxConfig carries the connection parameters for both client
// generations. Token and org select the 2.x API; user/password and
// the *_db names select 1.x.
type InfluxConfig struct {
	URL          string `mapstructure:"url"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Token        string `mapstructure:"token"`
	Org          string `mapstructure:"org"`
	SourceDB     string `mapstructure:"source_db"`
	TargetDB     string `mapstructure:"target_db"`
	SourceBucket string `mapstructure:"source_bucket"`
	TargetBucket string `mapstructure:"target_bucket"`
}

type Config struct {
	Influx        InfluxConfig `mapstructure:"influxdb"`
	BasePath      string       `mapstructure:"base_path"`
	PathLayout    string       `mapstructure:"path_layout"`
	StartDate     string       `mapstructure:"start_date"`
	UntilTSOffset string       `mapstructure:"until_ts_offset"`
	BatchSize     int          `mapstructure:"batch_size"`
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("WHISPER2INFLUX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// YAML hands dates back as time.Time; fold them into the string
	// fields they belong to.
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeToDateString(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	// YAML admits both `300` and `"5m"` here; take it as a string and
	// let UntilOffset sort it out.
	cfg.UntilTSOffset = v.GetString("until_ts_offset")
	return cfg, nil
}

// bindEnvs registers all keys within cfg so viper consults the
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

func timeToDateString() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from == reflect.TypeOf(time.Time{}) && to.Kind() == reflect.String {
			return data.(time.Time).UTC().Format("2006-01-02"), nil
		}
		return data, nil
	}
}

// UseV2 reports whether the 2.x client generation is configured.
func (c *Config) UseV2() bool {
	return c.Influx.Token != ""
}

// StartTimestamp parses start_date (YYYY-MM-DD, UTC) into unix
// seconds.
func (c *Config) StartTimestamp() (int64, error) {
	t, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return 0, fmt.Errorf("parse start_date %q: %w", c.StartDate, err)
	}
	return t.Unix(), nil
}

// UntilOffset parses until_ts_offset into seconds. A plain integer is
// seconds; a trailing "m" means minutes. Absent means zero.
func (c *Config) UntilOffset() (int64, error) {
	s := strings.TrimSpace(c.UntilTSOffset)
	if s == "" {
		return 0, nil
	}
	factor := int64(1)
	if strings.HasSuffix(s, "m") {
		factor = 60
		s = strings.TrimSuffix(s, "m")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse until_ts_offset %q: %w", c.UntilTSOffset, err)
	}
	return n * factor, nil
}

// Layout validates and returns the configured path layout.
func (c *Config) Layout() (identity.Layout, error) {
	return identity.ParseLayout(c.PathLayout)
}

// SourceName is the database (1.x) or bucket (2.x) the resolver
// queries.
func (c *Config) SourceName() string {
	if c.UseV2() {
		return c.Influx.SourceBucket
	}
	return c.Influx.SourceDB
}

// TargetName is the database (1.x) or bucket (2.x) records are
// written to.
func (c *Config) TargetName() string {
	if c.UseV2() {
		return c.Influx.TargetBucket
	}
	return c.Influx.TargetDB
}

// ValidateLive checks everything the live migration needs up front so
// a bad file fails before any database traffic.
func (c *Config) ValidateLive() error {
	if c.Influx.URL == "" {
		return fmt.Errorf("influxdb.url is required")
	}
	if c.BasePath == "" {
		return fmt.Errorf("base_path is required")
	}
	if c.UseV2() {
		if c.Influx.Org == "" {
			return fmt.Errorf("influxdb.org is required with a token")
		}
		if c.Influx.SourceBucket == "" || c.Influx.TargetBucket == "" {
			return fmt.Errorf("influxdb.source_bucket and influxdb.target_bucket are required with a token")
		}
	} else {
		if c.Influx.SourceDB == "" || c.Influx.TargetDB == "" {
			return fmt.Errorf("influxdb.source_db and influxdb.target_db are required")
		}
	}
	if _, err := c.StartTimestamp(); err != nil {
		return err
	}
	if _, err := c.UntilOffset(); err != nil {
		return err
	}
	_, err := c.Layout()
	return err
}

// ValidateExport checks what the CSV export run needs; the database
// connection is not part of it.
func (c *Config) ValidateExport() error {
	if c.BasePath == "" {
		return fmt.Errorf("base_path is required")
	}
	if _, err := c.StartTimestamp(); err != nil {
		return err
	}
	_, err := c.Layout()
	return err
}
