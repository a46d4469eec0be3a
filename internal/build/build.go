// Package build holds build-time information.
package build

// Version is the application version. It defaults to "dev" and is meant to be
// overwritten by linker flags at release time.
var Version = "dev"
