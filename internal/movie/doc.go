// Package movie defines the movie record shared by the bot, the web app and the stores,
// and parses the "Title | link | quality" messages users send to the bot.
package movie
