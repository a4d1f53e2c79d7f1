package local

// Version information for the threadlocal module.
const (
	// Version is the current version of the library.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the library.
type Info struct {
	// Version is the library version string.
	Version string

	// DeathDetection names the mechanism used to observe goroutine death.
	DeathDetection string
}

// GetInfo returns information about the library build.
//
// Example:
//
//	info := local.GetInfo()
//	fmt.Printf("threadlocal %s (%s)\n", info.Version, info.DeathDetection)
func GetInfo() Info {
	return Info{
		Version:        Version,
		DeathDetection: "weak sentinel + runtime.AddCleanup",
	}
}
