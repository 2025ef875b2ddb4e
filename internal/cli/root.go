// Package cli implements the imgproc command, which runs operation chains
// against local files.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhuangyq008/s3-image-process/internal/logger"
)

type options struct {
	logLevel  string
	logFormat string
	fontPath  string
}

// NewRootCommand builds the imgproc command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "imgproc",
		Short: "Apply image operation chains to local files",
		Long: `imgproc runs the same operation pipeline as the HTTP service against
files on disk.

Examples:
  imgproc transform --ops "resize,w_800/format,webp" --out small.webp photo.jpg
  imgproc transform --ops "watermark,text_Draft,g_center,t_40" photo.jpg > marked.jpg
  imgproc ops`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", envOr("LOG_FORMAT", "console"), "Log format (json or console)")
	root.PersistentFlags().StringVar(&opts.fontPath, "font", os.Getenv("WATERMARK_FONT_PATH"), "TrueType font used for watermarks")

	root.AddCommand(newTransformCommand(opts), newOpsCommand())
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) logger(cmd *cobra.Command) zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: o.logLevel, Format: o.logFormat}, cmd.ErrOrStderr())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
