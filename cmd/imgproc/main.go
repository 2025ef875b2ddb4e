package main

import (
	"fmt"
	"os"

	"github.com/zhuangyq008/s3-image-process/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
