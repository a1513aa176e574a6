package config

import (
	"strings"

	"github.com/joho/godotenv"
)

// RequiredKey is a variable the bot cannot work without. Aliases are older
// names the bot also accepts for the same value.
type RequiredKey struct {
	Name    string
	Purpose string
	Aliases []string
}

// RequiredKeys are checked by the setup wizard, in report order.
var RequiredKeys = []RequiredKey{
	{Name: "ROUTELLM_API_KEY", Purpose: "language-model router API key", Aliases: []string{"OPENROUTER_API_KEY"}},
	{Name: "ROUTELLM_ENDPOINT", Purpose: "language-model router base URL", Aliases: []string{"OPENROUTER_BASE_URL"}},
	{Name: "ROUTELLM_MODEL", Purpose: "language-model identifier", Aliases: []string{"OPENROUTER_MODEL"}},
	{Name: "NEWS_API_AI", Purpose: "news data API key"},
	{Name: "CRYPTOCOMPARE_API_KEY", Purpose: "market data API key"},
	{Name: "DISCORD_BOT_TOKEN", Purpose: "Discord bot token"},
	{Name: "DISCORD_CHANNEL_ID", Purpose: "Discord channel to post to"},
}

// ReadEnvFile parses a dotenv file.
func ReadEnvFile(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// MissingKeys returns the required keys that have no non-blank value under
// their name or any alias. Each key is judged on its own.
func MissingKeys(values map[string]string, keys []RequiredKey) []RequiredKey {
	var missing []RequiredKey
	for _, k := range keys {
		if !present(values, k) {
			missing = append(missing, k)
		}
	}
	return missing
}

func present(values map[string]string, k RequiredKey) bool {
	for _, name := range append([]string{k.Name}, k.Aliases...) {
		if strings.TrimSpace(values[name]) != "" {
			return true
		}
	}
	return false
}
