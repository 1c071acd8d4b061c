// Package report выгружает результаты пакета в CSV: строки по трещинам,
// сводку по снимкам и список отказов.
package report

import (
	"path/filepath"
	"strconv"
	"strings"
)

const minGeoTagParts = 4

// GeoTag координаты места съёмки
type GeoTag struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// ParseGeoTag достаёт координаты из имени вида "<префикс>_<дата>_<широта>_<долгота>.<расширение>",
// например "IMG_20231201_37.5665_126.9780.png". Нужно не меньше четырёх частей через "_",
// иначе имена камер вроде "DJI_0012_0034.JPG" читались бы как координаты.
// Если имя не подходит, возвращает fallback и false.
func ParseGeoTag(name string, fallback GeoTag) (GeoTag, bool) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(base, "_")
	if len(parts) < minGeoTagParts {
		return fallback, false
	}

	lat, err := strconv.ParseFloat(parts[len(parts)-2], 64)
	if err != nil || lat < -90 || lat > 90 {
		return fallback, false
	}
	lon, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || lon < -180 || lon > 180 {
		return fallback, false
	}

	return GeoTag{Latitude: lat, Longitude: lon}, true
}
