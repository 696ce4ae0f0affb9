package models

import "strings"

// CommandType enumerates the quick-entry commands workers can send.
type CommandType string

const (
	CommandFeed      CommandType = "feed"
	CommandWater     CommandType = "water"
	CommandMortality CommandType = "mortality"
	CommandExpense   CommandType = "expense"
	CommandRevenue   CommandType = "revenue"
	CommandVaccinate CommandType = "vaccinate"
	CommandSummary   CommandType = "summary"
	CommandHelp      CommandType = "help"
	CommandUnknown   CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"feed":      CommandFeed,
	"water":     CommandWater,
	"mortality": CommandMortality,
	"dead":      CommandMortality,
	"expense":   CommandExpense,
	"expenses":  CommandExpense,
	"revenue":   CommandRevenue,
	"sale":      CommandRevenue,
	"vaccinate": CommandVaccinate,
	"vaccine":   CommandVaccinate,
	"summary":   CommandSummary,
	"help":      CommandHelp,
}

// Command is a parsed worker instruction. Args keep their original case so batch ids and
// free text survive.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text. Only the command word is case-folded.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.TrimSpace(message))
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.TrimPrefix(strings.ToLower(tokens[0]), "/")
	if kind, ok := commandAliases[head]; ok {
		cmd.Type = kind
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
