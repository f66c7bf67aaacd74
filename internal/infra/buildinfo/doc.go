// Package buildinfo exposes build-time version information.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/minikv-go/internal/infra/buildinfo.Version=v1.0.0 \
//	    -X github.com/yndnr/minikv-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// When they are not set, Get falls back to the module and VCS data the
// Go toolchain embeds in the binary.
package buildinfo
