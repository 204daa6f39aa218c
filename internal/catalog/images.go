package catalog

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"stone-catalog-service/internal/domain"
)

var (
	imageExt         = regexp.MustCompile(`(?i)\.(webp|jpg|jpeg|png)$`)
	mainImageHint    = regexp.MustCompile(`(?i)1\.|01|main|cover|stand`)
	leadingNumber    = regexp.MustCompile(`^(\d+)\.`)
	imagePriorityPat = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^1\.`),
		regexp.MustCompile(`(?i)^01\.`),
		regexp.MustCompile(`(?i)main`),
		regexp.MustCompile(`(?i)cover`),
		regexp.MustCompile(`(?i)primary`),
		regexp.MustCompile(`(?i)_01\.`),
		regexp.MustCompile(`(?i)^1-`),
		regexp.MustCompile(`(?i)stand`),
		regexp.MustCompile(`(?i)front`),
		regexp.MustCompile(`(?i)hero`),
		regexp.MustCompile(`(?i)^a\.`),
	}
)

// IsImageFile reports whether name has an accepted image extension.
func IsImageFile(name string) bool {
	return imageExt.MatchString(name)
}

// isStandImage reports whether p sits under a "stand" folder.
func isStandImage(p string) bool {
	return strings.Contains(strings.ToLower(p), "/stand/")
}

// PickMainImage chooses the representative image of a product: the first one
// whose path hints at being the lead shot, else the first discovered.
func PickMainImage(images []string) string {
	for _, img := range images {
		if mainImageHint.MatchString(img) {
			return img
		}
	}
	if len(images) > 0 {
		return images[0]
	}
	return ""
}

// SortImagesByPriority returns a new slice ordered for display. Slab images
// are stand-first; furniture images are ranked by filename patterns, then by
// leading number. The sort is stable and the input is left untouched.
func SortImagesByPriority(images []string, category string) []string {
	out := make([]string, 0, len(images))
	if category != domain.CategoryFurniture {
		for _, img := range images {
			if isStandImage(img) {
				out = append(out, img)
			}
		}
		for _, img := range images {
			if !isStandImage(img) {
				out = append(out, img)
			}
		}
		return out
	}

	out = append(out, images...)
	sort.SliceStable(out, func(i, j int) bool {
		return imageScore(out[i]) < imageScore(out[j])
	})
	return out
}

func imageScore(img string) int {
	name := strings.ToLower(path.Base(img))
	for i, p := range imagePriorityPat {
		if p.MatchString(name) {
			return i
		}
	}
	if m := leadingNumber.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return 1000 + n
		}
	}
	return 10000
}

// appendUnique appends s unless it's already present.
func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
