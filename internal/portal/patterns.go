package portal

import "regexp"

// Compiled once and shared read-only by every parser in the package.
var (
	// catalogPattern captures, per anchor block: relative url, code, id,
	// visibility, cover url, title, publisher and padded expiry date.
	catalogPattern = regexp.MustCompile(`(?s)<a href='([^']+)'[^>]+?data-code='([^']+)' data-id='([^']+)' class='(bag|all)'[^>]*>.+?src='([^']+)'.+?<h1>([^']+)</h1>.+?<span class='publisher'>([^<]+)</span>.+?<h4>([^<]+)</h4>.+?</a>`)

	metaPattern     = regexp.MustCompile(`<meta name="([^"]+)"(?: |\n)+content="([^"]*)" ?/>`)
	pageSizePattern = regexp.MustCompile(`\[(\d+),(\d+)\]`)

	primaryAssetPattern = regexp.MustCompile(`xlink:href="(img/[^"]+)"`)
	shadeAssetPattern   = regexp.MustCompile(`xlink:href="(shade/[^"]+)"`)
)

// legacyMarker identifies a legacy reader's first page body
const legacyMarker = "svg"
