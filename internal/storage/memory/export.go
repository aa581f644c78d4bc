package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/moonfall/colonysim/pkg/core"
)

// ExportVersion is bumped whenever Export changes shape.
const ExportVersion = 1

// Export is the root of the exported journal file.
type Export struct {
	Version      int                  `json:"version"`
	Run          core.Run             `json:"run"`
	Summary      *core.RunSummary     `json:"summary,omitempty"`
	StateChanges []core.StateChange   `json:"stateChanges"`
	Battles      []core.BattleRecord  `json:"battles"`
	Attacks      []core.Attack        `json:"attacks"`
	Deaths       []core.Death         `json:"deaths"`
	Loot         []core.LootDrop      `json:"loot"`
	Feeding      []core.FeedingReport `json:"feeding"`
	Days         []core.DaySummary    `json:"days"`
}

// fileName builds "<run name>_<start>.json[.zst]" with unsafe characters replaced.
func fileName(run *core.Run, compress bool) string {
	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_", `\`, "_").Replace(run.Name)
	if name == "" {
		name = run.ID
	}
	base := fmt.Sprintf("%s_%s.json", name, run.StartTime.Format("20060102_150405"))
	if compress {
		return base + ".zst"
	}
	return base
}

func (b *Backend) buildExport() Export {
	return Export{
		Version:      ExportVersion,
		Run:          *b.run,
		Summary:      b.summary,
		StateChanges: nonNil(b.stateChanges),
		Battles:      nonNil(b.battles),
		Attacks:      nonNil(b.attacks),
		Deaths:       nonNil(b.deaths),
		Loot:         nonNil(b.loot),
		Feeding:      nonNil(b.feeding),
		Days:         nonNil(b.days),
	}
}

// export writes the journal to OutputDir. Caller holds b.mu.
func (b *Backend) export() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, fileName(b.run, b.cfg.CompressOutput))
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	data := b.buildExport()
	if b.cfg.CompressOutput {
		err = writeZstdJSON(f, data)
	} else {
		err = json.NewEncoder(f).Encode(data)
	}
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	b.lastExportPath = outputPath
	return nil
}

func writeZstdJSON(w io.Writer, data Export) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(data); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadExport decodes a file written by the backend, compressed or not.
func ReadExport(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var out Export
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	return &out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
