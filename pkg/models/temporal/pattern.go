package temporal

import (
	"fmt"
	"strings"
)

// Layout translates a datetime pattern written with the usual letters
// (yyyy, MM, dd, HH, mm, ss, SSS, quoted literals) into a Go time layout.
func Layout(pattern string) (string, error) {
	var sb strings.Builder
	rs := []rune(pattern)

	for i := 0; i < len(rs); {
		c := rs[i]

		if c == '\'' {
			/* '' is an escaped quote, otherwise copy up to the closing quote */
			if i+1 < len(rs) && rs[i+1] == '\'' {
				sb.WriteRune('\'')
				i += 2
				continue
			}
			j := i + 1
			for j < len(rs) && rs[j] != '\'' {
				j++
			}
			if j == len(rs) {
				return "", fmt.Errorf("unterminated quote in datetime pattern %q", pattern)
			}
			sb.WriteString(string(rs[i+1 : j]))
			i = j + 1
			continue
		}

		j := i
		for j < len(rs) && rs[j] == c {
			j++
		}
		n := j - i

		switch c {
		case 'y', 'u':
			if n == 2 {
				sb.WriteString("06")
			} else {
				sb.WriteString("2006")
			}
		case 'M', 'L':
			switch n {
			case 1:
				sb.WriteString("1")
			case 2:
				sb.WriteString("01")
			case 3:
				sb.WriteString("Jan")
			default:
				sb.WriteString("January")
			}
		case 'd':
			if n == 1 {
				sb.WriteString("2")
			} else {
				sb.WriteString("02")
			}
		case 'H':
			sb.WriteString("15")
		case 'h':
			if n == 1 {
				sb.WriteString("3")
			} else {
				sb.WriteString("03")
			}
		case 'm':
			if n == 1 {
				sb.WriteString("4")
			} else {
				sb.WriteString("04")
			}
		case 's':
			if n == 1 {
				sb.WriteString("5")
			} else {
				sb.WriteString("05")
			}
		case 'S':
			sb.WriteString(strings.Repeat("0", n))
		case 'a':
			sb.WriteString("PM")
		case 'E':
			if n >= 4 {
				sb.WriteString("Monday")
			} else {
				sb.WriteString("Mon")
			}
		default:
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
				if c != 'T' && c != 'Z' {
					return "", fmt.Errorf("unsupported letter %q in datetime pattern %q", c, pattern)
				}
			}
			sb.WriteString(string(rs[i:j]))
		}
		i = j
	}
	return sb.String(), nil
}

// InferKind picks the scalar kind whose fields a pattern describes.
func InferKind(pattern string) Kind {
	var hasY, hasMon, hasD, hasTime bool
	inQuote := false
	for _, c := range pattern {
		if c == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		switch c {
		case 'y', 'u':
			hasY = true
		case 'M', 'L':
			hasMon = true
		case 'd':
			hasD = true
		case 'H', 'h', 'm', 's', 'S':
			hasTime = true
		}
	}

	switch {
	case hasTime && (hasY || hasMon || hasD):
		return KindDateTime
	case hasTime:
		return KindTimeOfDay
	case hasD:
		return KindDate
	case hasY && hasMon:
		return KindYearMonth
	case hasY:
		return KindYear
	case hasMon:
		return KindMonth
	default:
		return KindDateTime
	}
}

// monthOnly reports whether a pattern is a bare numeric month, such as "M" or "MM".
func monthOnly(pattern string) bool {
	return pattern == "M" || pattern == "MM"
}
