package models

import "strings"

// CommandType enumerates the questions a manager can ask over WhatsApp.
type CommandType string

const (
	CommandKPI     CommandType = "kpi"
	CommandStock   CommandType = "stock"
	CommandTrucks  CommandType = "trucks"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
// Args keep their original case so branch names survive.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	tokens := strings.Fields(message)
	cmd := Command{Raw: message}

	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch head {
	case string(CommandKPI), "kpis":
		cmd.Type = CommandKPI
	case string(CommandStock):
		cmd.Type = CommandStock
	case string(CommandTrucks), "truck":
		cmd.Type = CommandTrucks
	case string(CommandHelp), "start":
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
