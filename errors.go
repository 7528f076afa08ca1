package subsurf

import (
	"errors"
	"fmt"

	"github.com/hupe1980/subsurf/container"
	"github.com/hupe1980/subsurf/element"
	"github.com/hupe1980/subsurf/mesh"
	"github.com/hupe1980/subsurf/persistence"
)

var (
	// ErrFormat matches malformed containers and artifacts.
	ErrFormat = errors.New("malformed input")
	// ErrInvalidMesh matches mesh invariant violations and role mismatches.
	ErrInvalidMesh = errors.New("invalid mesh")
	// ErrStorage matches artifact write failures.
	ErrStorage = errors.New("storage failure")
)

// translateError tags err with the facade sentinel for its class. The
// original error stays reachable through errors.As.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var cfe *container.ContainerFormatError
	if errors.As(err, &cfe) {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	var ode *container.ObjectDecodeError
	if errors.As(err, &ode) {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	var fve *persistence.FormatVersionError
	if errors.As(err, &fve) {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if errors.Is(err, persistence.ErrTruncated) || errors.Is(err, persistence.ErrChecksumMismatch) {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if errors.Is(err, mesh.ErrShapeMismatch) || errors.Is(err, mesh.ErrIndexRange) ||
		errors.Is(err, element.ErrTopologyMismatch) {
		return fmt.Errorf("%w: %w", ErrInvalidMesh, err)
	}

	var iwe *persistence.IOWriteError
	if errors.As(err, &iwe) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return err
}
