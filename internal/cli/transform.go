package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zhuangyq008/s3-image-process/internal/codec"
	"github.com/zhuangyq008/s3-image-process/internal/pipeline"
	"github.com/zhuangyq008/s3-image-process/internal/storage"
	"github.com/zhuangyq008/s3-image-process/internal/transform"
)

func newTransformCommand(opts *options) *cobra.Command {
	var (
		ops string
		out string
	)

	cmd := &cobra.Command{
		Use:   "transform <input>",
		Short: "Run an operation chain against a local image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, opts, args[0], ops, out)
		},
	}

	cmd.Flags().StringVar(&ops, "ops", "", "Operation chain, e.g. resize,p_50/format,png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func runTransform(cmd *cobra.Command, opts *options, input, ops, out string) error {
	log := opts.logger(cmd)

	if err := codec.Startup(); err != nil {
		return fmt.Errorf("start codec runtime: %w", err)
	}
	defer codec.Shutdown()

	abs, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("resolve input: %w", err)
	}
	local, err := storage.NewLocalStore(filepath.Dir(abs))
	if err != nil {
		return err
	}

	executor := pipeline.NewExecutor(
		transform.NewRegistry(transform.Options{FontPath: opts.fontPath}),
		pipeline.WithLogger(log),
	)
	proc := pipeline.NewProcessor(local, executor)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := proc.Process(ctx, pipeline.Request{Key: filepath.Base(abs), Operations: ops})
	if err != nil {
		return err
	}

	if out == "" || out == "-" {
		_, err = cmd.OutOrStdout().Write(res.Data)
		return err
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s %dx%d %d bytes\n", out, res.ContentType, res.Width, res.Height, len(res.Data))
	return nil
}
