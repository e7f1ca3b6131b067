package model

// Item is a single listing entry discovered during a crawl.
//
// Design decision: We keep Item minimal (title and URL only) because:
//  1. The crawl loop never fetches item detail pages; richer fields would
//     always be empty
//  2. Discovery order matters to callers, so items travel in slices, and
//     small values keep those slices cheap
//  3. Detail-page extraction is an extension point layered on top of the
//     discovered URL
type Item struct {
	// Title is the human-readable item title as it appeared in the listing.
	Title string `json:"title"`

	// URL is the absolute URL of the item page. Relative hrefs are resolved
	// against the listing page that contained them before an Item is built.
	URL string `json:"url"`
}
