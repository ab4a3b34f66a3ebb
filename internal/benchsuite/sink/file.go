package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/util"
)

// FileSink writes one result file per finalized run.
type FileSink struct {
	OutputDir string
	Clock     util.Clock
}

func NewFileSink(outputDir string) *FileSink {
	return &FileSink{
		OutputDir: outputDir,
		Clock:     &util.DefaultClock{},
	}
}

// Write writes the envelope as indented JSON to a timestamped file in the
// output directory and returns the path written.
func (s *FileSink) Write(envelope *Envelope) (string, error) {
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}

	if s.OutputDir != "" {
		if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
			return "", errors.WithStack(err)
		}
	}
	fileName := fmt.Sprintf("benchsuite-result-%s.json", s.Clock.Now().Format("20060102-150405"))
	filePath := filepath.Join(s.OutputDir, fileName)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", errors.WithStack(err)
	}
	return filePath, nil
}
