package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	v1 "github.com/OCAP2/roversim/internal/storage/memory/export/v1"
	"github.com/OCAP2/roversim/pkg/core"
)

// exportJSON writes the run to a (optionally gzipped) JSON file.
// Caller holds b.mu.
func (b *Backend) exportJSON() error {
	end := b.now()
	export, err := v1.Build(&v1.RunData{
		Run:        *b.run,
		EndTime:    end,
		Ticks:      b.ticks,
		Rejections: b.rejections,
		Trace:      b.trace,
	})
	if err != nil {
		return fmt.Errorf("failed to build export: %w", err)
	}

	filename := exportFileName(b.run, b.cfg.CompressOutput)
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeExport(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	b.lastExportMetadata = core.UploadMetadata{
		RunID:        b.run.ID,
		VehicleType:  b.run.VehicleType,
		Authenticity: b.run.Authenticity,
		Controller:   b.run.Controller,
		Duration:     end.Sub(b.run.StartTime),
	}
	return nil
}

// exportFileName builds "roversim_<start>_<id prefix>.json[.gz]".
func exportFileName(run *core.Run, compress bool) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("roversim_%s_%s.json", run.StartTime.Format("20060102_150405"), id)
	if compress {
		name += ".gz"
	}
	return name
}

func writeExport(path string, export v1.Export, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := json.NewEncoder(w).Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}
	return f.Close()
}

// GetExportedFilePath returns the path of the last export.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns the metadata of the last export.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMetadata
}
