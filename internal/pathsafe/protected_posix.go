//go:build !windows

package pathsafe

// protectedRoots lists platform system locations that must never be
// mutated, regardless of what a planner asks for. Sourced from the
// original Rust implementation's PathValidator::is_protected_path table
// (security/mod.rs), carried forward rather than invented.
var protectedRoots = []string{
	"/",
	"/System",
	"/usr",
	"/bin",
	"/sbin",
	"/Library",
	"/Applications",
	"/private",
	"/var",
}
