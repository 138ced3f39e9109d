// Package export writes finished recordings to disk.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the timestamp format used in persisted directory names.
const DateLayout = "20060102-150405.000"

// TempDir is the directory under the data root reused by every transient export.
const TempDir = "temp"

var (
	// ErrInvalidName is returned for a label or operator name that cannot be a path element.
	ErrInvalidName = errors.New("invalid name")
	// ErrOutsideRoot is returned when an export directory resolves outside the data root.
	ErrOutsideRoot = errors.New("export directory outside data root")
)

// CheckName reports whether name can be used as a single path element and
// as a field of the keypoint log header.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Policy decides where a recording is written.
type Policy interface {
	// Dir returns the output directory under root for an export at now.
	Dir(root string, now time.Time) string
	// Persistent reports whether the output belongs to the dataset.
	Persistent() bool
}

// Persisted writes into the dataset tree:
// root/<label_id>_<label_name>/<date>_<label_id>_<operator>/
type Persisted struct {
	LabelID   int
	LabelName string
	Operator  string
}

// Dir implements Policy.
func (p Persisted) Dir(root string, now time.Time) string {
	return filepath.Join(root,
		fmt.Sprintf("%d_%s", p.LabelID, p.LabelName),
		fmt.Sprintf("%s_%d_%s", now.Format(DateLayout), p.LabelID, p.Operator),
	)
}

// Persistent implements Policy.
func (Persisted) Persistent() bool { return true }

// Validate checks the label and operator names.
func (p Persisted) Validate() error {
	if err := CheckName(p.LabelName); err != nil {
		return fmt.Errorf("label %d: %w", p.LabelID, err)
	}
	if err := CheckName(p.Operator); err != nil {
		return fmt.Errorf("operator: %w", err)
	}
	return nil
}

// Transient overwrites root/temp on every export.
type Transient struct{}

// Dir implements Policy.
func (Transient) Dir(root string, _ time.Time) string {
	return filepath.Join(root, TempDir)
}

// Persistent implements Policy.
func (Transient) Persistent() bool { return false }

// within reports whether dir is root or lies below it.
func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
