package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Error messages
	"error.generic":              "Something went wrong. Please try again.",
	"error.empty_query":          "Tell me what to play, for example `%splay never gonna give you up`.",
	"error.no_results":           "No results found for `%s`.",
	"error.guild_only":           "This command only works inside a server.",
	"error.attachment_type":      "I can only play audio files (got %s).",
	"error.flood":                "Slow down a little, you are sending commands too fast.",
	"error.unknown_command":      "Unknown command `%s`.",
	"error.loop_mode":            "Loop mode must be one of none, track or queue.",
	"error.playback.generic":     "Playback of **%s** failed, skipping.",
	"error.playback.unavailable": "**%s** is not available on any source right now, skipping.",
	"error.playback.interrupted": "The connection dropped while playing **%s**, skipping.",

	// Success messages
	"success.queued":          "Queued **%s** (%s) at position %d.",
	"success.playing":         "Playing **%s** (%s).",
	"success.playlist_queued": "Queued %d tracks from **%s**.",
	"success.skipped":         "Skipped.",
	"success.stopped":         "Stopped playback and cleared the queue.",
	"success.autoplay_on":     "Autoplay is on.",
	"success.autoplay_off":    "Autoplay is off.",
	"success.loop":            "Loop mode set to %s.",
	"success.shuffled":        "Shuffled %d tracks.",
	"success.previous":        "Going back to **%s**.",
	"success.paused":          "Paused.",
	"success.resumed":         "Resumed.",

	// Queue listing
	"format.queue_current": "Now playing: **%s** (%s)",
	"format.queue_item":    "%d. %s (%s)",
	"format.queue_more":    "...and %d more",
	"format.queue_empty":   "The queue is empty.",
	"format.duration_live": "live",

	// Now playing
	"format.now_playing":        "Now playing: **%s** [%s / %s], requested by %s",
	"format.now_playing_paused": "Paused: **%s** [%s / %s], requested by %s",
	"format.now_playing_modes":  "Loop: %s, autoplay: %s, up next: %d",
	"format.on":                 "on",
	"format.off":                "off",

	// Bot status messages
	"bot.nothing_playing": "Nothing is playing.",
	"bot.no_previous":     "There is no earlier track to go back to.",
	"bot.now_playing":     "Now playing **%s** (%s).",
	"bot.now_playing_alt": "Now playing **%s** (%s) from a backup source.",
	"bot.queue_finished":  "Queue finished.",
	"bot.autoplay_added":  "Autoplay queued %d related tracks.",
}
