package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token string
}

// Bot owns the Discord session for the duration of a sync run
type Bot struct {
	config  Config
	session *discordgo.Session
	gateway *GuildGateway

	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
	closed    bool
}

// New creates a bot. The session is not opened until Connect.
func New(config Config) (*Bot, error) {
	if config.Token == "" {
		return nil, errors.New("discord token is required")
	}

	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	// Member listing needs the privileged guild members intent
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	b := &Bot{
		config:  config,
		session: dg,
		gateway: NewGuildGateway(dg),
		ready:   make(chan struct{}),
	}
	dg.AddHandler(b.handleReady)

	return b, nil
}

// Connect opens the gateway connection and waits for the ready event
func (b *Bot) Connect(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	return b.waitReady(ctx)
}

// waitReady blocks until the ready event. On cancellation the session is left
// open, an aborted run ends with the process.
func (b *Bot) waitReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for discord ready: %w", ctx.Err())
	}
}

// Close shuts the session down. It is safe to call more than once.
func (b *Bot) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.session.Close()
		b.closed = true
		log.Info("Discord session closed")
	})
	return err
}

// Gateway returns the guild operations backed by this session
func (b *Bot) Gateway() *GuildGateway {
	return b.gateway
}

// handleReady signals Connect once the session is authenticated
func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	b.readyOnce.Do(func() {
		log.WithFields(log.Fields{
			"user":   r.User.String(),
			"guilds": len(r.Guilds),
		}).Info("Logged in to Discord")
		close(b.ready)
	})
}
