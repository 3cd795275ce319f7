package bot

import (
	"strings"

	"basegraph.app/mergebot/internal/labels"
)

var commandTriggers = map[string]labels.Trigger{
	"r+": labels.TriggerApproved,
	"r-": labels.TriggerUnapproved,
}

// parseCommands returns the label triggers requested by "@<bot> <command>"
// mentions in a comment, in the order they appear. Unknown commands are ignored.
func parseCommands(text, botUsername string) []labels.Trigger {
	mention := "@" + botUsername

	var triggers []labels.Trigger
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		for i := 0; i+1 < len(fields); i++ {
			if !strings.EqualFold(fields[i], mention) {
				continue
			}
			if trigger, ok := commandTriggers[fields[i+1]]; ok {
				triggers = append(triggers, trigger)
			}
		}
	}
	return triggers
}
