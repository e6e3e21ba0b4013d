package portal

import (
	"fmt"
	"strconv"
)

// requiredMeta lists the meta tags every reader page must carry
var requiredMeta = []string{
	"title",
	"sbnr",
	"publisher",
	"publisherweb",
	"publisheradr",
	"publishertel",
	"publishermail",
}

// ExtractMetadata parses the reader's initial HTML. Every required meta
// tag must be present; firstPage falls back to MissingFirstPage. A document
// without page sizes yields an empty list.
func ExtractMetadata(html string) (*BookMetadata, error) {
	meta := make(map[string]string)
	for _, m := range metaPattern.FindAllStringSubmatch(html, -1) {
		meta[m[1]] = m[2]
	}

	for _, key := range requiredMeta {
		if _, ok := meta[key]; !ok {
			return nil, &ParseError{Field: key, Err: ErrMissingField}
		}
	}

	sizes, err := parsePageSizes(html)
	if err != nil {
		return nil, err
	}

	firstPage, ok := meta["firstPage"]
	if !ok {
		firstPage = MissingFirstPage
	}

	return &BookMetadata{
		Title:            meta["title"],
		SerialNumber:     meta["sbnr"],
		FirstPage:        firstPage,
		Publisher:        meta["publisher"],
		PublisherWeb:     meta["publisherweb"],
		PublisherAddress: meta["publisheradr"],
		PublisherTel:     meta["publishertel"],
		PublisherMail:    meta["publishermail"],
		PageSizes:        sizes,
	}, nil
}

func parsePageSizes(html string) ([]PageSize, error) {
	matches := pageSizePattern.FindAllStringSubmatch(html, -1)
	sizes := make([]PageSize, 0, len(matches))
	for i, m := range matches {
		width, err := strconv.ParseUint(m[1], 10, 16)
		if err != nil {
			return nil, &ParseError{Field: fmt.Sprintf("page_sizes[%d].width", i), Value: m[1], Err: ErrInvalidNumber}
		}
		height, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			return nil, &ParseError{Field: fmt.Sprintf("page_sizes[%d].height", i), Value: m[2], Err: ErrInvalidNumber}
		}
		sizes = append(sizes, PageSize{uint16(width), uint16(height)})
	}
	return sizes, nil
}
