// Package version exposes the build version injected at link time.
package version

// version is set via -ldflags "-X github.com/assetze/ghaudit/internal/version.version=v1.2.3".
var version string

// Value returns the build version, or a development placeholder when the
// binary was built without ldflags.
func Value() string {
	if version == "" {
		return "v0.0.0"
	}
	return version
}
