package config

const (
	defaultAssetsRoot       = "~/pixelframe/animations"
	defaultLogDir           = "~/.local/share/pixelframe/logs"
	defaultStateDir         = "~/.local/share/pixelframe/state"
	defaultAPIBind          = "127.0.0.1:7590"
	defaultDisplayDevice    = "/dev/fb0"
	defaultPixelFormat      = "rgb565"
	defaultMemoryWidth      = 720
	defaultMemoryHeight     = 720
	defaultMemoryBuffers    = 2
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetsRoot: defaultAssetsRoot,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
			APIBind:    defaultAPIBind,
		},
		Display: Display{
			Device:      defaultDisplayDevice,
			PixelFormat: defaultPixelFormat,
			Width:       defaultMemoryWidth,
			Height:      defaultMemoryHeight,
			Buffers:     defaultMemoryBuffers,
		},
		Playback: Playback{
			Unthrottled:      false,
			ResumeLast:       true,
			AutoCycleSeconds: 0,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
