package version

// Version is the dmclient release, set at build time with
// -ldflags "-X github.com/hashicorp-forge/hermes-dmclient/internal/version.Version=...".
var Version = "0.1.0-dev"
