// Package constants holds build-wide identifiers.
package constants

import "runtime"

// Name is the engine executable name.
const Name = "haspr"

// Version identifies the engine build in logs and run metrics.
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH
