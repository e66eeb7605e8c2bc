//go:build !linux

package display

import "fmt"

func openFramebuffer(device string) (Panel, error) {
	return nil, fmt.Errorf("display: framebuffer device %s requires linux; use device \"memory\"", device)
}
