// Package utils provides shared utility functions
package utils

import "fmt"

const sizeUnits = "KMGTPE"

// FormatFileSize renders an object size with binary units, e.g. "1.5 GB".
// Sizes below 1 KB are exact; negative sizes render as "0 B".
func FormatFileSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", max(size, 0))
	}
	value := float64(size)
	unit := -1
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %cB", value, sizeUnits[unit])
}
