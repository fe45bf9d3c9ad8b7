// delimited/parser.go
package delimited

// Parser splits delimited text into rows of fields.
//
// Rows end at "\n", "\r\n" or a lone "\r". A field wrapped in double quotes may
// contain the delimiter, row terminators and doubled quotes ("" reads as ").
// An unterminated quote keeps everything up to the end of input as the field
// value instead of failing.
//
// Parse returns exactly the rows present in the input: there is no leading
// placeholder row, and a single trailing row terminator does not produce an
// empty last row.
type Parser struct {
	Delimiter rune
}

// DefaultDelimiter is used when Parser.Delimiter is zero.
const DefaultDelimiter = ','

// New returns a parser for the given delimiter. A zero delimiter means comma.
func New(delimiter rune) *Parser {
	return &Parser{Delimiter: delimiter}
}

// Parse splits text with the default comma delimiter.
func Parse(text string) [][]string {
	return New(DefaultDelimiter).Parse(text)
}

func (p *Parser) delimiter() rune {
	if p == nil || p.Delimiter == 0 {
		return DefaultDelimiter
	}
	return p.Delimiter
}

// Parse splits text into rows.
func (p *Parser) Parse(text string) [][]string {
	delim := p.delimiter()
	src := []rune(text)

	var (
		rows    [][]string
		row     []string
		field   []rune
		started bool // current row has seen a token
	)
	endField := func() {
		row = append(row, string(field))
		field = field[:0]
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
		started = false
	}

	i := 0
	for i < len(src) {
		c := src[i]
		if c != '\r' && c != '\n' {
			started = true
		}
		switch {
		case c == '"' && len(field) == 0:
			// Quoted field: read until the closing quote, unescaping "".
			i++
			for i < len(src) {
				if src[i] == '"' {
					if i+1 < len(src) && src[i+1] == '"' {
						field = append(field, '"')
						i += 2
						continue
					}
					i++
					break
				}
				field = append(field, src[i])
				i++
			}
			continue
		case c == delim:
			endField()
		case c == '\r':
			endRow()
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
		case c == '\n':
			endRow()
		default:
			field = append(field, c)
		}
		i++
	}

	if started {
		endRow()
	}
	return rows
}

// Transpose turns row-major records into column-major ones:
// the result's [c][r] is the input's [r][c]. Short rows leave empty strings
// in the columns they do not reach.
func Transpose(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	cols := make([][]string, width)
	for c := range cols {
		cols[c] = make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				cols[c][r] = row[c]
			}
		}
	}
	return cols
}
