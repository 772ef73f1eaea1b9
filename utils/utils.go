package utils

import (
	"strings"
	"unicode/utf8"
)

// BoundDocument cuts text to at most maxChars runes, keeping whole lines where
// possible. Returns the bounded text and whether anything was cut.
// maxChars <= 0 means no limit.
func BoundDocument(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}

	// Byte offset where the maxChars-th rune ends
	cut := len(text)
	n := 0
	for i := range text {
		if n == maxChars {
			cut = i
			break
		}
		n++
	}

	// Back off to the last line break inside the budget
	if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
		return text[:nl+1], true
	}
	return text[:cut], true
}

// TrimLinesAround trims lines to fit within maxChars while preserving context
// around the focus line. Returns the kept lines, the focus row inside them,
// how many lines were removed from the start and whether trimming occurred.
func TrimLinesAround(lines []string, focusRow, maxChars int) ([]string, int, int, bool) {
	if len(lines) == 0 {
		return lines, 0, 0, false
	}

	// Clamp focus to valid range
	if focusRow < 0 {
		focusRow = 0
	}
	if focusRow >= len(lines) {
		focusRow = len(lines) - 1
	}

	if maxChars <= 0 {
		return lines, focusRow, 0, false
	}

	totalChars := 0
	for _, line := range lines {
		totalChars += utf8.RuneCountInString(line) + 1 // +1 for newline
	}
	if totalChars <= maxChars {
		return lines, focusRow, 0, false
	}

	// Half the budget above the focus line, half below
	focusChars := utf8.RuneCountInString(lines[focusRow]) + 1
	halfBudget := (maxChars - focusChars) / 2

	startLine := focusRow
	charsBefore := 0
	for startLine > 0 {
		newChars := utf8.RuneCountInString(lines[startLine-1]) + 1
		if charsBefore+newChars > halfBudget {
			break
		}
		startLine--
		charsBefore += newChars
	}

	// Below gets its half plus whatever above left unused
	budgetAfter := halfBudget + (halfBudget - charsBefore)
	endLine := focusRow
	charsAfter := 0
	for endLine < len(lines)-1 {
		newChars := utf8.RuneCountInString(lines[endLine+1]) + 1
		if charsAfter+newChars > budgetAfter {
			break
		}
		endLine++
		charsAfter += newChars
	}

	// Give budget unused below back to the lines above
	if unusedAfter := budgetAfter - charsAfter; unusedAfter > 0 {
		for startLine > 0 {
			newChars := utf8.RuneCountInString(lines[startLine-1]) + 1
			if charsBefore+newChars > halfBudget+unusedAfter {
				break
			}
			startLine--
			charsBefore += newChars
		}
	}

	trimmed := make([]string, endLine-startLine+1)
	copy(trimmed, lines[startLine:endLine+1])
	return trimmed, focusRow - startLine, startLine, true
}
