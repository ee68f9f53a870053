package config

// Version is the service binary version.
// Set at build time via: -ldflags "-X github.com/orderdesk/backoffice/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
