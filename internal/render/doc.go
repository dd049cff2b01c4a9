// Package render turns movies and free-form posts into HTML: the Blogger post
// body, and the reduced HTML subset Telegram accepts in chat replies.
package render
