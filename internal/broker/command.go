package broker

import (
	"fmt"
	"strings"

	"github.com/amirstm/tsetmc-pusher/internal/model"
)

// Action is the downstream command verb. Closed enum, matched exhaustively.
type Action int

const (
	ActionUnsubscribe Action = iota // wire value "0"
	ActionSubscribe                 // wire value "1"
)

// Command is one parsed downstream command.
type Command struct {
	Action  Action
	Channel model.Channel
	Isins   []string
}

// ParseCommand parses "<action>.<channel>.<isin1>,<isin2>,...".
//
// Validation is all-or-nothing: any bad part (wrong field count, unknown
// action or channel, any identity not exactly 12 characters) rejects the
// whole command.
func ParseCommand(message string) (Command, error) {
	parts := strings.Split(message, ".")
	if len(parts) != 3 {
		return Command{}, fmt.Errorf("command has %d fields, want 3", len(parts))
	}

	var action Action
	switch parts[0] {
	case "0":
		action = ActionUnsubscribe
	case "1":
		action = ActionSubscribe
	default:
		return Command{}, fmt.Errorf("unknown action %q", parts[0])
	}

	channel, ok := model.ParseSubscribableChannel(parts[1])
	if !ok {
		return Command{}, fmt.Errorf("unknown channel %q", parts[1])
	}

	isins := strings.Split(parts[2], ",")
	for _, isin := range isins {
		if !model.ValidIsin(isin) {
			return Command{}, fmt.Errorf("bad identity %q", isin)
		}
	}

	return Command{Action: action, Channel: channel, Isins: isins}, nil
}
