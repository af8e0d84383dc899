package gen

import (
	"regexp"
	"strings"
)

var (
	trailingBlanks = regexp.MustCompile(`(?m)[ \t]+$`)
	leadingBlanks  = regexp.MustCompile(`(?m)^[ \t]+`)
	useStatement   = regexp.MustCompile(`(?m)^use (?P<class>[^\s;]+)(?:\s+as\s+(?P<alias>.*))?;`)
)

// Clean normalizes generated source text. Line endings become "\n",
// trailing blanks are stripped, tabs in the indentation become four spaces,
// use statements whose class is not referenced are dropped, and the text
// ends with a line break. Clean(Clean(s)) == Clean(s).
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = trailingBlanks.ReplaceAllString(s, "")
	s = leadingBlanks.ReplaceAllStringFunc(s, func(ws string) string {
		return strings.ReplaceAll(ws, "\t", "    ")
	})
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return pruneUses(s)
}

func pruneUses(s string) string {
	classIdx, aliasIdx := useStatement.SubexpIndex("class"), useStatement.SubexpIndex("alias")
	for _, m := range useStatement.FindAllStringSubmatch(s, -1) {
		short := m[aliasIdx]
		if short == "" {
			class := m[classIdx]
			short = class[strings.LastIndex(class, `\`)+1:]
		}
		line := m[0] + "\n"
		rest := strings.ReplaceAll(s, line, "")
		used, err := regexp.MatchString(`(?i)\b`+regexp.QuoteMeta(short)+`\b`, rest)
		if err == nil && !used {
			s = rest
		}
	}
	return s
}
