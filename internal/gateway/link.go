package gateway

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNoLastRelation means the Link header advertises no last page,
	// i.e. every item fit on the first page.
	ErrNoLastRelation = errors.New(`link header has no rel="last" entry`)
	// ErrNoPageNumber means the last-page URL does not end in a page number.
	ErrNoPageNumber = errors.New("link header has no trailing page number")
)

// LastPage returns the page number advertised by the rel="last" entry of a
// Link header such as
//
//	<https://api.github.com/repositories/1/commits?per_page=1&page=4135>; rel="last"
//
// The number is read by scanning backward from the entry's closing '>' for as
// long as digits are found, so the URL must end in page=<N>.
func LastPage(link string) (int, error) {
	for _, entry := range strings.Split(link, ",") {
		if !strings.Contains(entry, `rel="last"`) {
			continue
		}
		end := strings.LastIndexByte(entry, '>')
		if end < 0 {
			return 0, ErrNoPageNumber
		}
		start := end
		for start > 0 && entry[start-1] >= '0' && entry[start-1] <= '9' {
			start--
		}
		if start == end {
			return 0, ErrNoPageNumber
		}
		return strconv.Atoi(entry[start:end])
	}
	return 0, ErrNoLastRelation
}
