// Package adapter turns raw CAD file bytes into an unhealed CadModel.
// Two formats are supported: a narrow DXF group-code subset and the
// JSON/line-based IFC-lite format. Adapters share only the geometry
// primitives and the CadModel data model.
package adapter

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/planar-dev/planar/pkg/model"
)

// Version is stamped on every model this package produces.
const Version = "1.0.0"

// Adapter converts raw bytes into an unhealed CadModel.
type Adapter interface {
	// Format returns the source format name ("dxf", "ifc-lite").
	Format() string

	// Adapt parses data. Units come from the payload when declared,
	// else from unitHint; with neither, Adapt fails with
	// ErrMissingUnits. Units are never silently assumed.
	Adapt(data []byte, unitHint *model.UnitKind, tolerance float64) (*model.CadModel, error)
}

// ErrMissingUnits is returned when the payload declares no units and no
// unit hint was supplied.
var ErrMissingUnits = errors.New("input declares no units and no unit hint was supplied")

// ErrUnknownFormat is returned by Detect when the input matches no
// known format.
var ErrUnknownFormat = errors.New("unable to detect input format")

// ParseError wraps an adapter-internal failure with the format name,
// so callers always know which adapter failed.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s adapter: parse failed: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// sourceSHA256 returns the full hex SHA-256 of the raw input bytes.
func sourceSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// resolveUnits applies the strict units policy shared by both adapters.
func resolveUnits(declared *model.UnitKind, hint *model.UnitKind) (model.UnitKind, error) {
	if declared != nil {
		return *declared, nil
	}
	if hint != nil {
		return *hint, nil
	}
	return 0, ErrMissingUnits
}
