// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package export renders ranking results for download.
package export

import (
	"strconv"
	"strings"

	"github.com/danielhkuo/stimulus-rank/models"
)

// Header is the first line of every results file.
const Header = "title,nar_level,sex,url,rank"

// ResultsCSV renders rows in the researchers' established layout:
//
//	"<title>",<nar_level>, <sex>,"<url>", <rank>
//
// Lines are joined with "\n" and there is no trailing newline. Double quotes
// inside any text field are doubled.
func ResultsCSV(rows []models.ResultRow) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, Header)
	for _, r := range rows {
		var b strings.Builder
		b.WriteString(`"`)
		b.WriteString(escape(r.Title))
		b.WriteString(`",`)
		b.WriteString(escape(r.NarLevel))
		b.WriteString(", ")
		b.WriteString(escape(r.Sex))
		b.WriteString(`,"`)
		b.WriteString(escape(r.URL))
		b.WriteString(`", `)
		b.WriteString(strconv.Itoa(r.Rank))
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// Filename is the attachment name for a participant's results.
func Filename(code string) string {
	return code + "_result.csv"
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
