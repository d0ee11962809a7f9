// Package version provides build and version information for the SDUI host.
package version

// Version is the current release version of the SDUI host.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/SentientUI/internal/version.Version=x.y.z"
var Version = "0.3.0"

// Protocol is the screen protocol version this host writes and renders natively.
const Protocol = "1.0.0"
