package version

// VERSION is the version of the application. It is replaced at build time
// via -ldflags for release builds.
var VERSION = "0.1.0-dev"
