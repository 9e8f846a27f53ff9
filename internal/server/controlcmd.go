/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package server

import (
	"strconv"

	packrat "github.com/launix-de/go-packrat/v2"
)

// positioningParser recognizes AESDCHAR_IOCSEEKTO:<u32>,<u32> the same way
// scm/packrat.go composes AtomParser/RegexParser/AndParser, except the
// grammar is fixed in Go rather than built from a parsed s-expression.
var positioningParser = packrat.NewAndParser(
	packrat.NewAtomParser("AESDCHAR_IOCSEEKTO:", false, false),
	packrat.NewRegexParser("[0-9]+", false, false),
	packrat.NewAtomParser(",", false, false),
	packrat.NewRegexParser("[0-9]+", false, false),
	packrat.NewEndParser(false),
)

// parseControlCommand reports whether line (with any trailing newline
// already stripped) is exactly a positioning command. A line that merely
// starts with the right prefix but carries extra trailing bytes, or isn't
// a well-formed decimal pair, is ordinary data (spec.md §4.3).
func parseControlCommand(line string) (writeCmd, inCmdOffset uint32, ok bool) {
	scanner := packrat.NewScanner(line, packrat.SkipWhitespaceAndCommentsRegex)
	node, err := packrat.Parse(positioningParser, scanner)
	if err != nil || node == nil || len(node.Children) < 4 {
		return 0, 0, false
	}
	a, err1 := strconv.ParseUint(node.Children[1].Matched, 10, 32)
	b, err2 := strconv.ParseUint(node.Children[3].Matched, 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return uint32(a), uint32(b), true
}
