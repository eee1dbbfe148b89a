package utils

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"time"
)

// ParseBuckets parses a comma-separated string of bucket values into a slice of float64
func ParseBuckets(env string) []float64 {
	if env == "" {
		return nil
	}
	parts := strings.Split(env, ",")
	var buckets []float64
	for _, p := range parts {
		if f, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err == nil {
			buckets = append(buckets, f)
		} else {
			// print error
			fmt.Printf("Error parsing bucket value '%s': %v\n", p, err)
			return nil
		}
	}
	return buckets
}

// GetEnvInt returns the integer value of an environment variable, or def
// when it is unset or not a number.
func GetEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ElapsedMs returns the time since st in milliseconds
func ElapsedMs(st time.Time) float64 {
	return float64(time.Since(st).Microseconds()) / 1000.0
}

// GetIoU calculates the Intersection over Union (IoU) of two rectangles.
// Returns 0.0 if they do not overlap.
func GetIoU(bb1, bb2 image.Rectangle) float64 {
	intersect := bb1.Intersect(bb2)
	if intersect.Empty() {
		return 0.0
	}
	interArea := float64(intersect.Dx() * intersect.Dy())
	unionArea := float64(bb1.Dx()*bb1.Dy()+bb2.Dx()*bb2.Dy()) - interArea
	return interArea / unionArea
}

// UnmatchedBoxes returns the detections that do not overlap any tracked box
// by at least iouThreshold.
func UnmatchedBoxes(tracked, detected []image.Rectangle, iouThreshold float64) []image.Rectangle {
	var fresh []image.Rectangle
	for _, d := range detected {
		matched := false
		for _, t := range tracked {
			if GetIoU(d, t) >= iouThreshold {
				matched = true
				break
			}
		}
		if !matched {
			fresh = append(fresh, d)
		}
	}
	return fresh
}
