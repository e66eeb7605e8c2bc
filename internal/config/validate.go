package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration for values the daemon cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.AssetsRoot) == "" {
		return fmt.Errorf("paths.assets_root must be set")
	}
	if c.Paths.APIBind != "" {
		if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
			return fmt.Errorf("paths.api_bind %q: %w", c.Paths.APIBind, err)
		}
	}
	switch c.Display.PixelFormat {
	case "rgb565", "bgr888":
	default:
		return fmt.Errorf("display.pixel_format %q: must be rgb565 or bgr888", c.Display.PixelFormat)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q: must be console or json", c.Logging.Format)
	}
	if c.Playback.AutoCycleSeconds < 0 {
		return fmt.Errorf("playback.auto_cycle_seconds must not be negative")
	}
	return nil
}
