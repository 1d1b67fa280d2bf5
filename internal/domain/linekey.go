package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const lineKeySeparator = "_"

// LineKey builds the composite id for the line at index within text textID.
func LineKey(textID int64, index int) string {
	return fmt.Sprintf("%d%s%d", textID, lineKeySeparator, index)
}

// ParseLineKey splits a line id into its parent text id and line index.
// The split happens at the last separator: the text id is purely numeric
// and cannot contain one, so parsing from the right is always safe.
func ParseLineKey(key string) (textID int64, index int, err error) {
	sep := strings.LastIndex(key, lineKeySeparator)
	if sep <= 0 || sep == len(key)-1 {
		return 0, 0, fmt.Errorf("%w: malformed line id %q", ErrInvalidArgument, key)
	}
	textID, err = strconv.ParseInt(key[:sep], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: line id %q has non-numeric text id", ErrInvalidArgument, key)
	}
	index, err = strconv.Atoi(key[sep+1:])
	if err != nil || index < 0 {
		return 0, 0, fmt.Errorf("%w: line id %q has invalid index", ErrInvalidArgument, key)
	}
	return textID, index, nil
}
