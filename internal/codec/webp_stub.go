//go:build !govips || !cgo

package codec

import "image"

func Startup() error {
	return nil
}

func Shutdown() {}

func WebPEnabled() bool { return false }

func encodeWebP(image.Image, int) ([]byte, error) {
	return nil, ErrWebPNotEnabled
}
