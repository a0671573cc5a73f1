// Package validation checks the dashboard's input files and export
// directory before the pipeline touches them.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// shapefileSidecars must sit next to a .shp for it to be readable
var shapefileSidecars = []string{".shx", ".dbf"}

// FileValidator validates input and output paths
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path is an existing, readable, non-empty file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() == 0 {
		v.logger.Error("File is empty",
			slog.String("file", path))
		return fmt.Errorf("file %s is empty", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDataset checks the intervention table
func (v *FileValidator) ValidateDataset(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".txt" {
		v.logger.Error("Dataset is not a delimited text file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("dataset %s is not a CSV file (extension: %s)", path, ext)
	}
	return nil
}

// ValidateBoundaries checks a shapefile and its sidecars, or a GeoJSON file
func (v *FileValidator) ValidateBoundaries(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".shp":
	case ".geojson", ".json":
		return v.ValidateFile(path)
	default:
		v.logger.Error("Unsupported boundary format",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("boundary file %s has unsupported extension %q", path, ext)
	}

	if err := v.ValidateFile(path); err != nil {
		return err
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	var missing []string
	for _, side := range shapefileSidecars {
		if !sidecarExists(base, side) {
			missing = append(missing, side)
		}
	}
	if len(missing) > 0 {
		v.logger.Error("Shapefile is incomplete",
			slog.String("file", path),
			slog.String("missing", strings.Join(missing, ",")))
		return fmt.Errorf("shapefile %s is missing %s", path, strings.Join(missing, ", "))
	}
	return nil
}

// sidecarExists accepts either case of the extension
func sidecarExists(base, ext string) bool {
	for _, e := range []string{ext, strings.ToUpper(ext)} {
		if info, err := os.Stat(base + e); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// ValidateOutputDirectory ensures dir exists or can be created, and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// Report is the outcome of validating every configured path
type Report struct {
	Dataset    error
	Boundaries error
	ExportDir  error
}

// OK reports whether every check passed
func (r Report) OK() bool {
	return r.Dataset == nil && r.Boundaries == nil && r.ExportDir == nil
}

// Problems lists the failed checks
func (r Report) Problems() []string {
	var out []string
	for _, err := range []error{r.Dataset, r.Boundaries, r.ExportDir} {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

// ValidateInputs checks the dataset, the optional boundary file and the
// optional export directory
func (v *FileValidator) ValidateInputs(csvPath, boundaryPath, exportDir string) Report {
	var r Report
	r.Dataset = v.ValidateDataset(csvPath)
	if boundaryPath != "" {
		r.Boundaries = v.ValidateBoundaries(boundaryPath)
	}
	if exportDir != "" {
		r.ExportDir = v.ValidateOutputDirectory(exportDir)
	}
	return r
}
