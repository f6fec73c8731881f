// Package main provides the entry point for the flaircensus CLI.
//
// flaircensus collects a bounded number of posts from a subreddit in the Hot,
// Latest and Top orderings and reports how link flair and the NSFW flag are
// distributed in each.
//
// Usage:
//
//	flaircensus collect [subreddit...]
//	flaircensus collect --targets subreddits.csv
//	flaircensus history 196
//	flaircensus serve --history runs.db
//
// See --help for all available options.
package main

func main() {
	Execute()
}
