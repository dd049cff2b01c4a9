// Package bot implements the Telegram side of moviepost.
//
// Updates arrive from long polling or from a webhook and are fanned out to a
// fixed pool of workers. Each text message is either a command (/start, /help,
// /post, /movie, /publish, /recent, /stats) or a plain "Title | link" request
// that is looked up, stored, and answered with an HTML card and a
// "Publish to Blogger" button.
package bot
