package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// CollectImages возвращает пути файлов каталога с одним из расширений, по алфавиту.
// Расширения сравниваются без учёта регистра; пустой список берёт все файлы.
func CollectImages(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(extensions) > 0 && !slices.ContainsFunc(extensions, func(ext string) bool {
			return strings.EqualFold(filepath.Ext(name), ext)
		}) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	slices.Sort(paths)
	return paths, nil
}
