package recovery

// matchBrace returns the index of the '}' closing the '{' at open, or -1 when
// text ends first. Braces inside strings are ignored.
func matchBrace(text string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// frame is one open container during a completion scan.
type frame struct {
	open        byte
	members     int
	expectValue bool
}

func closerFor(open byte) byte {
	if open == '[' {
		return ']'
	}
	return '}'
}

// completion is a cut of the input that can be closed into valid nesting.
type completion struct {
	text string
	kept int
}

// complete scans prefix, which must start with '{', and returns the longest
// cut ending on a complete member, closed innermost-first. A trailing member
// that is incomplete is dropped, except that an unterminated string value is
// closed in place when it is the only member of its container. Scanning stops
// at the close of the top-level object; anything after it is ignored.
func complete(prefix string) (completion, bool) {
	if len(prefix) == 0 || prefix[0] != '{' {
		return completion{}, false
	}

	var stack []frame
	safe := -1 // prefix length of the last clean cut
	var closers []byte
	snapshot := func(at int) {
		safe = at
		closers = closers[:0]
		for i := len(stack) - 1; i >= 0; i-- {
			closers = append(closers, closerFor(stack[i].open))
		}
	}
	memberDone := func(at int) {
		if len(stack) > 0 {
			stack[len(stack)-1].members++
		}
		snapshot(at)
	}

	i := 0
	for i < len(prefix) {
		c := prefix[i]
		switch c {
		case '{', '[':
			stack = append(stack, frame{open: c, expectValue: c == '['})
			i++
			snapshot(i)
		case '}', ']':
			if len(stack) == 0 || closerFor(stack[len(stack)-1].open) != c {
				return finish(prefix, safe, closers)
			}
			stack = stack[:len(stack)-1]
			i++
			if len(stack) == 0 {
				return completion{text: prefix[:i], kept: i}, true
			}
			memberDone(i)
		case ',':
			if top := len(stack) - 1; top >= 0 && stack[top].open == '{' {
				stack[top].expectValue = false
			}
			i++
		case ':':
			if top := len(stack) - 1; top >= 0 {
				stack[top].expectValue = true
			}
			i++
		case ' ', '\t', '\n', '\r':
			i++
		case '"':
			end, closed := stringEnd(prefix, i)
			isValue := len(stack) > 0 && stack[len(stack)-1].expectValue
			if closed {
				i = end + 1
				if isValue {
					memberDone(i)
				}
				continue
			}
			if isValue && stack[len(stack)-1].members == 0 {
				snapshot(len(prefix))
				open := trimPartialEscape(prefix, i+1)
				return completion{
					text: open + `"` + string(closers),
					kept: len(open),
				}, true
			}
			return finish(prefix, safe, closers)
		default:
			end := i
			for end < len(prefix) && !isDelimiter(prefix[end]) {
				end++
			}
			isValue := len(stack) > 0 && stack[len(stack)-1].expectValue
			if isValue && isLiteral(prefix[i:end]) {
				memberDone(end)
			}
			i = end
		}
	}
	return finish(prefix, safe, closers)
}

func finish(prefix string, safe int, closers []byte) (completion, bool) {
	if safe < 0 {
		return completion{}, false
	}
	return completion{text: prefix[:safe] + string(closers), kept: safe}, true
}

// stringEnd returns the index of the quote closing the string opened at
// start, or false when the text ends inside the string.
func stringEnd(text string, start int) (int, bool) {
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '"':
			return i, true
		}
	}
	return 0, false
}

// trimPartialEscape drops a dangling backslash or an incomplete \u escape
// from the end of an unterminated string whose content begins at floor.
func trimPartialEscape(s string, floor int) string {
	for i := len(s) - 1; i >= floor && i >= len(s)-6; i-- {
		if s[i] != '\\' {
			continue
		}
		run := 0
		for j := i; j >= floor && s[j] == '\\'; j-- {
			run++
		}
		if run%2 == 0 {
			return s
		}
		rest := s[i+1:]
		if rest == "" || (rest[0] == 'u' && len(rest) < 5) {
			return s[:i]
		}
		return s
	}
	return s
}

func isDelimiter(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ',', ':', '"', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isLiteral(tok string) bool {
	switch tok {
	case "true", "false", "null":
		return true
	}
	return isNumber(tok)
}

// isNumber reports whether tok matches the JSON number grammar.
func isNumber(tok string) bool {
	i := 0
	if i < len(tok) && tok[i] == '-' {
		i++
	}
	if i >= len(tok) {
		return false
	}
	if tok[i] == '0' {
		i++
	} else if tok[i] >= '1' && tok[i] <= '9' {
		for i < len(tok) && isDigit(tok[i]) {
			i++
		}
	} else {
		return false
	}
	if i < len(tok) && tok[i] == '.' {
		i++
		start := i
		for i < len(tok) && isDigit(tok[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(tok) && (tok[i] == 'e' || tok[i] == 'E') {
		i++
		if i < len(tok) && (tok[i] == '+' || tok[i] == '-') {
			i++
		}
		start := i
		for i < len(tok) && isDigit(tok[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(tok)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
