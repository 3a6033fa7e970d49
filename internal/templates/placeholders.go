package templates

// Placeholder is one :name occurrence in template SQL.
// Start and End are byte offsets; SQL[Start:End] is ":name".
type Placeholder struct {
	Name  string
	Start int
	End   int
}

// ScanPlaceholders returns the :name placeholders of sql in order of
// appearance. Quoted strings, quoted identifiers, comments and
// PostgreSQL :: casts are skipped.
func ScanPlaceholders(sql string) []Placeholder {
	var out []Placeholder
	n := len(sql)
	for i := 0; i < n; i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			// '' inside a string closes and reopens, which scans the same
			i = skipUntil(sql, i+1, c)
		case c == '-' && i+1 < n && sql[i+1] == '-':
			for i < n && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && sql[i+1] == '*':
			i += 2
			for i+1 < n && !(sql[i] == '*' && sql[i+1] == '/') {
				i++
			}
			i++
		case c == ':' && i+1 < n && sql[i+1] == ':':
			i++
		case c == ':' && i+1 < n && isIdentStart(sql[i+1]):
			j := i + 2
			for j < n && isIdentChar(sql[j]) {
				j++
			}
			out = append(out, Placeholder{Name: sql[i+1 : j], Start: i, End: j})
			i = j - 1
		}
	}
	return out
}

// skipUntil returns the index of the next quote byte at or after i,
// or the last index when the quote is unterminated.
func skipUntil(s string, i int, quote byte) int {
	for i < len(s) && s[i] != quote {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// ValidName reports whether name can be used as a placeholder
func ValidName(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return false
		}
	}
	return true
}
