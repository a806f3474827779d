package domain

import (
	"fmt"
	"strconv"
)

// Field names as stored in the collection.
const (
	FieldBook      = "book"
	FieldLineNo    = "lineNo"
	FieldText      = "text"
	FieldEmbedding = "embedding"
)

// FieldEquals reports whether the named field of l equals value exactly.
// Unknown fields never match.
func (l Line) FieldEquals(field string, value any) bool {
	switch field {
	case FieldBook:
		s, ok := value.(string)
		return ok && l.Book == s
	case FieldText:
		s, ok := value.(string)
		return ok && l.Text == s
	case FieldLineNo:
		switch v := value.(type) {
		case int:
			return l.LineNo == v
		case int32:
			return l.LineNo == int(v)
		case int64:
			return l.LineNo == int(v)
		}
	}
	return false
}

// ParseFieldValue converts a command-line value into the type stored for field.
func ParseFieldValue(field, raw string) (any, error) {
	if field == FieldLineNo {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("lineNo must be an integer: %w", err)
		}
		return n, nil
	}
	return raw, nil
}
