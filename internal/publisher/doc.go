// Package publisher sends rendered movie posts to their destinations.
//
// Blogger is the primary target. Twitter can receive a short cross-post, and a
// dry-run publisher prints what would be sent. Multi fans one item out to
// several publishers and Paced spaces consecutive publishes with a rate limiter.
package publisher
