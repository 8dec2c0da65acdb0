// Package status defines the four-state verification status result
// shared by the lock store and the decision engine (spec.md §3, §4.5,
// §4.6): Verified, Unverified(reason), and Untracked.
package status

// Kind is the top-level verification state.
type Kind int

const (
	Verified Kind = iota
	Unverified
	Untracked
)

// ReasonKind enumerates why a check is Unverified.
type ReasonKind int

const (
	NeverRun ReasonKind = iota
	ConfigChanged
	FilesChanged
	DependencyUnverified
)

// Status is the decision output for one check (spec.md §3).
type Status struct {
	Kind Kind

	// Valid only when Kind == Unverified.
	Reason ReasonKind

	// Valid only when Reason == FilesChanged.
	ChangedFiles []string

	// Valid only when Reason == DependencyUnverified.
	Dependency string
}

// IsVerified reports whether this status means the check can be skipped.
func (s Status) IsVerified() bool {
	return s.Kind == Verified
}

// NewVerified returns the Verified status.
func NewVerified() Status {
	return Status{Kind: Verified}
}

// NewUntracked returns the Untracked status.
func NewUntracked() Status {
	return Status{Kind: Untracked}
}

// NewNeverRun returns Unverified{NeverRun}.
func NewNeverRun() Status {
	return Status{Kind: Unverified, Reason: NeverRun}
}

// NewConfigChanged returns Unverified{ConfigChanged}.
func NewConfigChanged() Status {
	return Status{Kind: Unverified, Reason: ConfigChanged}
}

// NewFilesChanged returns Unverified{FilesChanged{changed}}.
func NewFilesChanged(changed []string) Status {
	return Status{Kind: Unverified, Reason: FilesChanged, ChangedFiles: changed}
}

// NewDependencyUnverified returns Unverified{DependencyUnverified{dep}}.
func NewDependencyUnverified(dep string) Status {
	return Status{Kind: Unverified, Reason: DependencyUnverified, Dependency: dep}
}

// String renders a short human label, used by the results collector and
// `status` CLI output.
func (s Status) String() string {
	switch s.Kind {
	case Verified:
		return "verified"
	case Untracked:
		return "untracked"
	default:
		switch s.Reason {
		case NeverRun:
			return "unverified (never run)"
		case ConfigChanged:
			return "unverified (config changed)"
		case FilesChanged:
			return "unverified (files changed)"
		case DependencyUnverified:
			return "unverified (dependency: " + s.Dependency + ")"
		default:
			return "unverified"
		}
	}
}
