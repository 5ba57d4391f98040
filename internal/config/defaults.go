package config

const (
	defaultDownloadDir    = "~/.local/share/squeeze/downloads"
	defaultLogDir         = "~/.local/share/squeeze/logs"
	defaultScratchDir     = "~/.local/share/squeeze/scratch"
	defaultYtDlpBinary    = "yt-dlp"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultAudioKbps      = 96
	defaultMinVideoKbps   = 300
	defaultEncodeTimeout  = 7200
	defaultDownloadFormat = "bv*[vcodec^=avc1][ext=mp4]+ba[ext=m4a]/b[ext=mp4]"
	defaultOutputTemplate = "%(title)s.%(ext)s"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			ScratchDir:  defaultScratchDir,
		},
		Downloader: Downloader{
			Binary:         defaultYtDlpBinary,
			Format:         defaultDownloadFormat,
			OutputTemplate: defaultOutputTemplate,
			TimeoutSeconds: 1800,
		},
		Encoder: Encoder{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			AudioKbps:      defaultAudioKbps,
			MinVideoKbps:   defaultMinVideoKbps,
			TimeoutSeconds: defaultEncodeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
