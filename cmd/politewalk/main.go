// Package main provides the entry point for the politewalk CLI.
//
// politewalk is a polite web crawler for paginated listing pages. It
// honors robots.txt, paces its requests with jittered delays, and backs
// off when the server signals overload.
//
// Usage:
//
//	politewalk crawl https://books.toscrape.com/
//	politewalk crawl --json -o report.json https://example.com/catalogue/
//
// See --help for all available options.
package main

// main is the entry point for politewalk.
func main() {
	Execute()
}
