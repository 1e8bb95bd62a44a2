// ABOUTME: Version information for the oggplay binaries
// ABOUTME: Product and version strings used in logs and network requests
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "oggplay"
)

// UserAgent is sent with HTTP and WebSocket source requests.
func UserAgent() string {
	return Product + "/" + Version
}
