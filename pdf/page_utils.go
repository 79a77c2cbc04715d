package pdf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsePageSpecifier parses a 1-based page selection string into a
// sorted, deduplicated list of page numbers.
// Supported forms: "3", "1,4", "2-5" and combinations like "1,3-5,7".
func ParsePageSpecifier(pages string) ([]int, error) {
	spec := strings.Join(strings.Fields(pages), "")
	if spec == "" {
		return nil, fmt.Errorf("empty page specification")
	}

	var pageList []int
	for _, part := range strings.Split(spec, ",") {
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, fmt.Errorf("invalid start page: %s", bounds[0])
			}
			end, err := strconv.Atoi(bounds[1])
			if err != nil {
				return nil, fmt.Errorf("invalid end page: %s", bounds[1])
			}
			if start > end {
				return nil, fmt.Errorf("invalid range: start > end (%d > %d)", start, end)
			}
			for i := start; i <= end; i++ {
				pageList = append(pageList, i)
			}
			continue
		}

		pageNum, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", part)
		}
		pageList = append(pageList, pageNum)
	}

	sort.Ints(pageList)
	var deduped []int
	for i, page := range pageList {
		if i == 0 || page != pageList[i-1] {
			deduped = append(deduped, page)
		}
	}

	return deduped, nil
}

// ValidatePageNumbers checks that every page number falls within the
// document's page range.
func ValidatePageNumbers(pages []int, totalPages int) error {
	for _, page := range pages {
		if page < 1 {
			return fmt.Errorf("page numbers must be positive, got %d", page)
		}
		if page > totalPages {
			return fmt.Errorf("page %d exceeds total pages (%d)", page, totalPages)
		}
	}
	return nil
}
