package i18n

// germanMessages contains all German translations.
var germanMessages = map[string]string{
	// Error messages
	"error.generic":              "Etwas ist schiefgelaufen. Bitte versuch es nochmal.",
	"error.empty_query":          "Sag mir, was ich spielen soll, zum Beispiel `%splay never gonna give you up`.",
	"error.no_results":           "Keine Treffer für `%s`.",
	"error.guild_only":           "Dieser Befehl funktioniert nur auf einem Server.",
	"error.attachment_type":      "Ich kann nur Audiodateien abspielen (erhalten: %s).",
	"error.flood":                "Etwas langsamer bitte, du sendest zu viele Befehle.",
	"error.unknown_command":      "Unbekannter Befehl `%s`.",
	"error.loop_mode":            "Der Loop-Modus muss none, track oder queue sein.",
	"error.playback.generic":     "Wiedergabe von **%s** fehlgeschlagen, wird übersprungen.",
	"error.playback.unavailable": "**%s** ist gerade auf keiner Quelle verfügbar, wird übersprungen.",
	"error.playback.interrupted": "Die Verbindung ist bei **%s** abgebrochen, wird übersprungen.",

	// Success messages
	"success.queued":          "**%s** (%s) an Position %d eingereiht.",
	"success.playing":         "Spiele **%s** (%s).",
	"success.playlist_queued": "%d Titel aus **%s** eingereiht.",
	"success.skipped":         "Übersprungen.",
	"success.stopped":         "Wiedergabe gestoppt und Warteschlange geleert.",
	"success.autoplay_on":     "Autoplay ist an.",
	"success.autoplay_off":    "Autoplay ist aus.",
	"success.loop":            "Loop-Modus auf %s gesetzt.",
	"success.shuffled":        "%d Titel gemischt.",
	"success.previous":        "Zurück zu **%s**.",
	"success.paused":          "Pausiert.",
	"success.resumed":         "Geht weiter.",

	// Queue listing
	"format.queue_current": "Läuft gerade: **%s** (%s)",
	"format.queue_item":    "%d. %s (%s)",
	"format.queue_more":    "...und %d weitere",
	"format.queue_empty":   "Die Warteschlange ist leer.",
	"format.duration_live": "live",

	// Now playing
	"format.now_playing":        "Läuft gerade: **%s** [%s / %s], gewünscht von %s",
	"format.now_playing_paused": "Pausiert: **%s** [%s / %s], gewünscht von %s",
	"format.now_playing_modes":  "Loop: %s, Autoplay: %s, als Nächstes: %d",
	"format.on":                 "an",
	"format.off":                "aus",

	// Bot status messages
	"bot.nothing_playing": "Es läuft nichts.",
	"bot.no_previous":     "Es gibt keinen früheren Titel.",
	"bot.now_playing":     "Läuft jetzt: **%s** (%s).",
	"bot.now_playing_alt": "Läuft jetzt: **%s** (%s) von einer Ersatzquelle.",
	"bot.queue_finished":  "Warteschlange beendet.",
	"bot.autoplay_added":  "Autoplay hat %d ähnliche Titel eingereiht.",
}
