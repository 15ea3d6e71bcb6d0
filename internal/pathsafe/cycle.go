package pathsafe

import (
	"path/filepath"
	"strings"
)

// WouldCreateCycle canonicalizes source and target and classifies the
// move as a cycle, if any. Callers (the planner's translator, and the
// executor for defense in depth) must reject the move when this returns a
// non-nil error rather than attempt it.
func (v *Validator) WouldCreateCycle(source, target string) error {
	canonicalSource, err := canonicalize(source)
	if err != nil {
		return newErr(ErrSourceNotFound, source)
	}
	canonicalTarget, err := canonicalize(target)
	if err != nil {
		return newErr(ErrTargetNotFound, target)
	}

	if canonicalSource == canonicalTarget {
		return newErr(ErrSameDirectory, canonicalSource)
	}
	if strings.HasPrefix(canonicalTarget, canonicalSource+string(filepath.Separator)) {
		return newPairErr(ErrTargetIsDescendant, canonicalSource, canonicalTarget)
	}
	return nil
}

// WouldCreateCycleMultiSource extends WouldCreateCycle for a drop of
// several sources onto one target: additionally rejects a target that
// equals any of the canonicalized sources.
func (v *Validator) WouldCreateCycleMultiSource(sources []string, target string) error {
	canonicalTarget, err := canonicalize(target)
	if err != nil {
		return newErr(ErrTargetNotFound, target)
	}
	for _, source := range sources {
		canonicalSource, err := canonicalize(source)
		if err != nil {
			return newErr(ErrSourceNotFound, source)
		}
		if canonicalTarget == canonicalSource {
			return newErr(ErrTargetIsSource, canonicalTarget)
		}
		if strings.HasPrefix(canonicalTarget, canonicalSource+string(filepath.Separator)) {
			return newPairErr(ErrTargetIsDescendant, canonicalSource, canonicalTarget)
		}
	}
	return nil
}
