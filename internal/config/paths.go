package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths. Every path is derived from
// the executable directory so the application behaves the same no
// matter where it is launched from.
type Paths struct {
	BaseDir    string
	DataDir    string
	UploadsDir string
	ReportsDir string
	LogsDir    string
	WebDir     string
}

// GetPaths resolves the application paths relative to the executable
// location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return PathsUnder(filepath.Dir(exe)), nil
}

// PathsUnder builds the path layout rooted at baseDir.
//
//	baseDir/
//	  ├── data/
//	  │   ├── uploads/   (maintenance-log workbooks as received)
//	  │   └── reports/   (cleaned exports: csv, json, xlsx)
//	  ├── logs/
//	  └── web/
func PathsUnder(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, "data")
	return &Paths{
		BaseDir:    baseDir,
		DataDir:    dataDir,
		UploadsDir: filepath.Join(dataDir, "uploads"),
		ReportsDir: filepath.Join(dataDir, "reports"),
		LogsDir:    filepath.Join(baseDir, "logs"),
		WebDir:     filepath.Join(baseDir, "web"),
	}
}

// EnsureDirectories creates the required directories if they don't
// exist.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.UploadsDir,
		p.ReportsDir,
		p.LogsDir,
	}
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetUploadPath returns the absolute path for an uploaded workbook.
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filename)
}

// GetReportPath returns the absolute path for a generated report.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the absolute path for a log file.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
