// Package bot is the chat front end: it parses "$command args" messages,
// validates the arguments, runs the matching ranking and formats the reply.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"xivmarket/internal/config"
	"xivmarket/internal/errx"
	"xivmarket/internal/logx"
	"xivmarket/internal/market"
	"xivmarket/internal/models"
	"xivmarket/internal/ranking"
	"xivmarket/internal/services/universalis"
)

const Prefix = "$"

// Rankings is the ranking engine the commands run.
type Rankings interface {
	Ventures(ctx context.Context, server string, n, minVelocity int) (*ranking.VentureResult, error)
	Collectibles(ctx context.Context, color ranking.ScripColor, server string, n int) (*ranking.CollectibleResult, error)
	ScripRewards(ctx context.Context, server string, color ranking.ScripColor, n, minVelocity int) (*ranking.ScripResult, error)
	Gearset(ctx context.Context, ilvl int, job, server string, quality universalis.Quality) (*ranking.GearResult, error)
	JobGroupSet(ctx context.Context, ilvl int, server string, group ranking.JobGroup, quality universalis.Quality, byWorld bool) (*ranking.GearResult, error)
	Resell(ctx context.Context, home, target string, mode ranking.ResellMode, n int) (*ranking.ResellResult, error)
}

// Servers resolves server names.
type Servers interface {
	Lookup(server string) (market.Server, error)
}

// Recipes looks up collectible recipes for display.
type Recipes interface {
	Recipe(name string) (models.Recipe, error)
}

// Field is one titled block of a reply.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is a formatted reply.
type Message struct {
	Content string  `json:"content,omitempty"`
	Title   string  `json:"title,omitempty"`
	Fields  []Field `json:"fields,omitempty"`
}

// Text flattens the message for plain text transports.
func (m *Message) Text() string {
	var b strings.Builder
	if m.Content != "" {
		b.WriteString(m.Content + "\n")
	}
	if m.Title != "" {
		b.WriteString("**" + m.Title + "**\n")
	}
	for _, f := range m.Fields {
		b.WriteString(f.Name + "\n" + f.Value + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Rejection is a command refused before it ran. Its text goes back to the
// user as is.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string {
	return ":warning: " + r.Reason
}

func reject(format string, args ...any) error {
	return &Rejection{Reason: fmt.Sprintf(format, args...)}
}

type command struct {
	usage string
	help  string
	args  int
	run   func(ctx context.Context, args []string) (*Message, error)
}

type Bot struct {
	rankings Rankings
	servers  Servers
	recipes  Recipes
	tuning   config.Tuning
	commands map[string]command
}

func New(rankings Rankings, servers Servers, recipes Recipes, tuning config.Tuning) *Bot {
	b := &Bot{rankings: rankings, servers: servers, recipes: recipes, tuning: tuning}
	b.commands = b.commandTable()
	return b
}

// Handle runs one chat message from user. Messages without the command
// prefix are ignored and give a nil message.
func (b *Bot) Handle(ctx context.Context, user, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Prefix) {
		return nil, nil
	}
	parts := strings.Fields(strings.TrimPrefix(text, Prefix))
	if len(parts) == 0 {
		return nil, reject("**Invalid command. Try using** `$help` **to see a list of available commands.**")
	}
	name, args := strings.ToLower(parts[0]), parts[1:]

	logx.Info().Str("user", user).Str("command", name).Strs("args", args).Msg("command")

	cmd, ok := b.commands[name]
	if !ok {
		return nil, reject("**Invalid command. Try using** `$help` **to see a list of available commands.**")
	}
	if len(args) < cmd.args {
		return nil, reject("**Please pass in all arguments.** Usage: `%s%s`", Prefix, cmd.usage)
	}

	msg, err := cmd.run(ctx, args)
	if err != nil {
		var rej *Rejection
		if !errors.As(err, &rej) {
			logx.Error().Err(err).Str("user", user).Str("command", name).Msg("command failed")
		}
		return nil, err
	}
	return msg, nil
}

// Reply is the text sent back for an error returned by Handle.
func Reply(err error) string {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Error()
	}
	if errors.Is(err, errx.ErrNotFound) {
		return ":warning: " + err.Error()
	}
	return ":warning: Unhandled error:\n" + err.Error()
}

// checkServer resolves server and rejects it unless its scope is in mask.
func (b *Bot) checkServer(server string, mask market.Scope, rejection string) (string, error) {
	s, err := b.servers.Lookup(server)
	if errors.Is(err, errx.ErrNotFound) || (err == nil && !mask.Allows(s.Scope)) {
		return "", reject("%s Got: %s", rejection, server)
	}
	if err != nil {
		return "", err
	}
	return s.Name, nil
}

func (b *Bot) help(context.Context, []string) (*Message, error) {
	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	msg := &Message{Title: "Commands"}
	for _, name := range names {
		cmd := b.commands[name]
		msg.Fields = append(msg.Fields, Field{Name: Prefix + cmd.usage, Value: cmd.help})
	}
	return msg, nil
}
