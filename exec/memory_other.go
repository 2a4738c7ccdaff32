//go:build !linux
// +build !linux

package exec

func newPlatformMemory(pages, max uint32) (linearMemory, error) {
	return newHeapMemory(pages), nil
}
