// Package main provides the jsenum command line tool.
//
// jsenum crawls a site from a seed URL, stays on the seed's origin and scans
// every script it finds for hard-coded credentials.
//
// Usage:
//
//	jsenum scan <url>
//	jsenum patterns
//
// See --help for all available options.
package main

func main() {
	Execute()
}
