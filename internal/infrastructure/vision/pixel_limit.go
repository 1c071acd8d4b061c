package vision

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PixelLimitEnv переменная, из которой OpenCV читает предел размера снимка.
// OpenCV читает её один раз при загрузке библиотеки, поэтому её нужно экспортировать до запуска.
const PixelLimitEnv = "OPENCV_IO_MAX_IMAGE_PIXELS"

// ErrPixelLimit предел OpenCV не выставлен или меньше нужного.
var ErrPixelLimit = errors.New("opencv pixel limit is not raised")

// CheckPixelLimit проверяет, что предел OpenCV из окружения не меньше want.
// lookup обычно os.LookupEnv.
func CheckPixelLimit(lookup func(string) (string, bool), want int64) error {
	raw, ok := lookup(PixelLimitEnv)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return fmt.Errorf("%w: export %s=%d before starting the process", ErrPixelLimit, PixelLimitEnv, want)
	}
	got, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a number", ErrPixelLimit, PixelLimitEnv, raw)
	}
	if got < want {
		return fmt.Errorf("%w: %s=%d is below the configured %d", ErrPixelLimit, PixelLimitEnv, got, want)
	}
	return nil
}
