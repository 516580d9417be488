package bot

import (
	"fmt"
	"strings"

	"telegram-chat-stats/internal/apiclient"
)

// parseCaption разбирает параметры из подписи к файлу.
// Поддерживаются owner=Имя_Фамилия, owner_id=user123, types=a,b, nobots и bots.
func parseCaption(caption string, excludeBots bool) (apiclient.StartOptions, error) {
	opts := apiclient.StartOptions{ExcludeBots: &excludeBots}

	for _, token := range strings.Fields(caption) {
		switch strings.ToLower(token) {
		case "nobots":
			v := true
			opts.ExcludeBots = &v
			continue
		case "bots":
			v := false
			opts.ExcludeBots = &v
			continue
		}

		key, value, ok := strings.Cut(token, "=")
		if !ok || value == "" {
			return opts, fmt.Errorf("непонятный параметр %q", token)
		}
		switch strings.ToLower(key) {
		case "owner":
			opts.Owner = strings.ReplaceAll(value, "_", " ")
		case "owner_id":
			opts.OwnerID = value
		case "types":
			opts.ChatTypes = value
		default:
			return opts, fmt.Errorf("неизвестный параметр %q", key)
		}
	}
	return opts, nil
}
