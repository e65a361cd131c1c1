// Package cos provides common low-level types and utilities for all pgheap packages
/*
 * Copyright (c) 2026, pgheap authors. All rights reserved.
 */
package cos

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
	TiB = 1024 * GiB
)

// ToSizeIEC formats a byte count as a human-readable IEC size.
func ToSizeIEC(b int64, digits int) string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.*fTiB", digits, float64(b)/float64(TiB))
	case b >= GiB:
		return fmt.Sprintf("%.*fGiB", digits, float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.*fMiB", digits, float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.*fKiB", digits, float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// ParseSize parses a size string with an optional IEC suffix ("32KiB", "1.5GiB").
// A missing suffix denotes bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("cos: empty size")
	}
	mult := int64(1)
	ls := strings.ToLower(s)
	for _, sfx := range []struct {
		s string
		m int64
	}{
		{"tib", TiB}, {"gib", GiB}, {"mib", MiB}, {"kib", KiB},
		{"tb", TiB}, {"gb", GiB}, {"mb", MiB}, {"kb", KiB},
		{"t", TiB}, {"g", GiB}, {"m", MiB}, {"k", KiB}, {"b", 1},
	} {
		if strings.HasSuffix(ls, sfx.s) {
			mult = sfx.m
			s = strings.TrimSpace(s[:len(s)-len(sfx.s)])
			break
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cos: invalid size %q: %v", s, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("cos: negative size %q", s)
	}
	return int64(f * float64(mult)), nil
}
