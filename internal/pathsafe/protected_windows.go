//go:build windows

package pathsafe

// protectedRoots mirrors protected_posix.go for Windows system locations.
var protectedRoots = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
}
