package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type envSection struct {
	title string
	flags []string
}

var envSections = []envSection{
	{"Discord", []string{"discord-token", "discord-guild-id", "command-prefix", "language"}},
	{"Spotify links (optional)", []string{"spotify-client-id", "spotify-client-secret"}},
	{"Providers", []string{
		"ytdlp-path", "youtube-proxy", "search-limit", "provider-rps",
		"provider-timeout-secs", "allowed-content-type",
	}},
	{"Resolution and fallback", []string{"resolve-timeout-secs", "fallback-window", "min-duration-secs"}},
	{"Playback", []string{"cache-dir", "history-size", "autoplay-count"}},
	{"Flood Prevention", []string{"flood-limit-per-minute"}},
	{"HTTP Server", []string{"server-host", "server-port"}},
	{"Logging", []string{"log-level", "log-format", "log-file"}},
}

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("✅ Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# playernix Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	fmt.Fprintf(&content, "# Format: %s_<SETTING>=value\n", envPrefix)
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n\n")

	for _, section := range envSections {
		writeEnvSection(&content, cmd, section)
	}

	return content.String()
}

func writeEnvSection(content *strings.Builder, cmd *cobra.Command, section envSection) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# %s\n", section.title)
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# CLI: --%s\n", strings.Join(section.flags, ", --"))

	for _, name := range section.flags {
		f := cmd.PersistentFlags().Lookup(name)
		if f == nil {
			continue
		}
		fmt.Fprintf(content, "# %s\n", f.Usage)
		fmt.Fprintf(content, "%s=%s\n", flagToEnvVar(name), f.DefValue)
	}
	content.WriteString("\n")
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
