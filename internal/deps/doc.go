// Package deps verifies that the external binaries movcompress shells out to
// are installed and runnable.
package deps
