package builder

import (
	"errors"
	"fmt"

	"fixture-builder/core/digest"
)

var (
	// ErrInputUnreadable is returned when a watched file cannot be read.
	ErrInputUnreadable = digest.ErrInputUnreadable
	// ErrStaleness is returned when the staleness check itself fails.
	ErrStaleness = errors.New("staleness check failed")
	// ErrClean is returned when previous output or table rows cannot be removed.
	ErrClean = errors.New("cleaning previous fixtures failed")
	// ErrLegacyLoad is returned when a legacy fixture file cannot be loaded.
	ErrLegacyLoad = errors.New("legacy fixture load failed")
	// ErrPopulation is returned when the population routine fails.
	ErrPopulation = errors.New("population failed")
	// ErrEmit is returned when a fixture file cannot be written.
	ErrEmit = errors.New("fixture emit failed")
	// ErrCommit is returned when the snapshot cannot be saved.
	ErrCommit = errors.New("snapshot commit failed")
	// ErrAfterBuild is returned when a hook run after a committed build fails.
	ErrAfterBuild = errors.New("after build hook failed")
	// ErrBuildInProgress is returned when a build is started while another runs.
	ErrBuildInProgress = errors.New("build already in progress")
)

// Stage names the step of a build that failed.
type Stage string

const (
	StageFingerprint Stage = "fingerprint"
	StageCheck       Stage = "check"
	StageClean       Stage = "clean"
	StageLegacy      Stage = "legacy"
	StagePopulate    Stage = "populate"
	StageEmit        Stage = "emit"
	StageCommit      Stage = "commit"
	StageAfterBuild  Stage = "after_build"
)

var stageErrors = map[Stage]error{
	StageFingerprint: ErrInputUnreadable,
	StageCheck:       ErrStaleness,
	StageClean:       ErrClean,
	StageLegacy:      ErrLegacyLoad,
	StagePopulate:    ErrPopulation,
	StageEmit:        ErrEmit,
	StageCommit:      ErrCommit,
	StageAfterBuild:  ErrAfterBuild,
}

// BuildError reports the stage, and the table when there is one, at which
// a build failed. It matches both the stage sentinel and the cause with
// errors.Is.
type BuildError struct {
	Stage Stage
	Table string
	Err   error
}

func (e *BuildError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s failed for table %s: %v", e.Stage, e.Table, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the stage sentinel and the cause.
func (e *BuildError) Unwrap() []error {
	if sentinel, ok := stageErrors[e.Stage]; ok {
		return []error{sentinel, e.Err}
	}
	return []error{e.Err}
}
