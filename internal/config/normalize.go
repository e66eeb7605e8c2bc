package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDisplay()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.AssetsRoot) == "" {
		c.Paths.AssetsRoot = defaultAssetsRoot
	}
	if c.Paths.AssetsRoot, err = expandPath(c.Paths.AssetsRoot); err != nil {
		return fmt.Errorf("paths.assets_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeDisplay() {
	c.Display.Device = strings.TrimSpace(c.Display.Device)
	if c.Display.Device == "" {
		c.Display.Device = defaultDisplayDevice
	}
	c.Display.PixelFormat = strings.ToLower(strings.TrimSpace(c.Display.PixelFormat))
	if c.Display.PixelFormat == "" {
		c.Display.PixelFormat = defaultPixelFormat
	}
	if c.Display.Width <= 0 {
		c.Display.Width = defaultMemoryWidth
	}
	if c.Display.Height <= 0 {
		c.Display.Height = defaultMemoryHeight
	}
	if c.Display.Buffers <= 0 {
		c.Display.Buffers = defaultMemoryBuffers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
