// Package web serves the movie catalogue over HTTP with gin.
//
// HTML pages list stored movies (/), add new ones (/admin) and show a single
// movie rendered as its blog snippet (/movie/:id). The same data is available
// as JSON under /api/movies. When the bot runs in webhook mode its handler is
// mounted at /telegram/webhook.
package web
