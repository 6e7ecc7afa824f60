// Package memory provides in-process implementations of the repository
// interfaces used by the use case and HTTP tests.
package memory
