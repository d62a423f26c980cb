package model

import "strings"

// Command is one parsed inbound message.
type Command struct {
	Sender string
	Name   string
	Args   []string
}

// ParseCommand splits text on whitespace; the first token is the name.
func ParseCommand(sender, text string) Command {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{Sender: sender}
	}
	return Command{Sender: sender, Name: fields[0], Args: fields[1:]}
}
