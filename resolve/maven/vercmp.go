package maven

// Style selects a version-range matching strategy. Only Maven is
// implemented: a "range" against a Maven repository is, in practice,
// always one exact version string, so matching is plain string equality.
// A generic (Native) ordering comparator is out of scope: nothing in the
// dependency-resolution path ever needs one.
type Style int

const (
	StyleMaven Style = iota
)

// Matches reports whether version satisfies range under this Style.
func (s Style) Matches(rangeSpec, version string) bool {
	switch s {
	case StyleMaven:
		return rangeSpec == version
	default:
		return false
	}
}
