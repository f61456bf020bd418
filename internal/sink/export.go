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
	"compress/gzip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/identity"
	"github.com/chrnie/convert-icinga-whisper-to-influx/internal/logctx"
)

// ExportFileName is written next to each source value.wsp file. Its
// presence marks the identity as done and short-circuits reconversion.
const ExportFileName = "value.lp.gz"

// Export accumulates one identity's records as line protocol and
// persists them gzip-compressed next to the whisper file.
type Export struct {
	outPath string
	lines   strings.Builder
}

var _ TargetSink = (*Export)(nil)

func NewExport() *Export {
	return &Export{}
}

func (s *Export) BeginIdentity(_ context.Context, _ identity.Identity, wspPath string) error {
	s.outPath = filepath.Join(filepath.Dir(wspPath), ExportFileName)
	s.lines.Reset()

	if _, err := os.Stat(s.outPath); err == nil {
		return ErrAlreadyExported
	}
	return nil
}

func (s *Export) Write(_ context.Context, rec Record) error {
	// Export lines carry only the value field; the unit rides live
	// writes exclusively.
	rec.Unit = ""
	_, err := s.lines.WriteString(rec.LineProtocol())
	return err
}

// Flush persists the accumulated lines. Nothing is written when the
// identity produced no records, so empty export files never appear.
func (s *Export) Flush(ctx context.Context) error {
	if s.outPath == "" || s.lines.Len() == 0 {
		return nil
	}

	f, err := os.Create(s.outPath)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(s.lines.String())); err != nil {
		_ = gz.Close()
		_ = f.Close()
		return fmt.Errorf("write export file %s: %w", s.outPath, err)
	}
	if err := gz.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close gzip stream %s: %w", s.outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file %s: %w", s.outPath, err)
	}

	logctx.FromContext(ctx).Info("Saved line protocol export",
		slog.String("path", s.outPath))
	s.outPath = ""
	s.lines.Reset()
	return nil
}

func (s *Export) Close() error {
	return nil
}
