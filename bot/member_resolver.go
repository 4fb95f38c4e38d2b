package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"backersync/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// memberPageSize is the largest page the members endpoint returns
const memberPageSize = 1000

// NameType represents the type of Discord name
type NameType int

const (
	UsernameType    NameType = iota // Account username (highest priority)
	DisplayNameType                 // Global display name
	NicknameType                    // Server-specific nickname (lowest priority)
)

// nameSearchOrder is the order names are matched in
var nameSearchOrder = []NameType{UsernameType, DisplayNameType, NicknameType}

// String returns a human-readable name for the NameType
func (n NameType) String() string {
	switch n {
	case UsernameType:
		return "username"
	case DisplayNameType:
		return "global display name"
	case NicknameType:
		return "server nickname"
	default:
		return "unknown"
	}
}

// memberLister is the slice of the Discord REST API the resolver needs
type memberLister interface {
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// guildNames indexes one guild's members by each kind of name
type guildNames struct {
	byType  map[NameType]map[string][]entities.Member
	expires time.Time
}

// MemberResolver finds guild members by exact name.
// Members are listed once per guild and cached for cacheTTL.
type MemberResolver struct {
	api         memberLister
	rateLimiter *RateLimiter
	cacheTTL    time.Duration
	maxRetries  int
	backoffUnit time.Duration

	mu    sync.Mutex
	cache map[string]*guildNames
}

// NewMemberResolver creates a new member resolver
func NewMemberResolver(api memberLister) *MemberResolver {
	return &MemberResolver{
		api:         api,
		rateLimiter: NewRateLimiter(1 * time.Second),
		cacheTTL:    5 * time.Minute,
		maxRetries:  3,
		backoffUnit: 1 * time.Second,
		cache:       make(map[string]*guildNames),
	}
}

// FindByName returns the member whose username, global display name or server nickname
// equals name exactly, checked in that order. It returns nil when nobody matches.
func (r *MemberResolver) FindByName(ctx context.Context, guildID, name string) (*entities.Member, error) {
	names, err := r.guildNames(ctx, guildID)
	if err != nil {
		return nil, err
	}

	for _, nameType := range nameSearchOrder {
		matches := names.byType[nameType][name]
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			log.Warnf("Found %d members with %s '%s' in guild %s, using the first", len(matches), nameType, name, guildID)
		}
		member := matches[0]
		log.Debugf("Matched '%s' to member %s by %s", name, member.UserID, nameType)
		return &member, nil
	}

	return nil, nil
}

// Invalidate drops the cached members of a guild
func (r *MemberResolver) Invalidate(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, guildID)
}

// guildNames returns the name index for a guild, listing members when the cache is cold
func (r *MemberResolver) guildNames(ctx context.Context, guildID string) (*guildNames, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if names, ok := r.cache[guildID]; ok && time.Now().Before(names.expires) {
		return names, nil
	}

	members, err := r.fetchGuildMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	names := buildNameIndex(members)
	names.expires = time.Now().Add(r.cacheTTL)
	r.cache[guildID] = names

	log.Infof("Indexed %d members for guild %s", len(members), guildID)
	return names, nil
}

// fetchGuildMembers lists all guild members with pagination
func (r *MemberResolver) fetchGuildMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	var allMembers []*discordgo.Member
	after := ""

	for {
		if err := r.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		batch, err := r.fetchMemberBatchWithRetry(ctx, guildID, after)
		if err != nil {
			return nil, err
		}

		for _, member := range batch {
			if member != nil && member.User != nil {
				allMembers = append(allMembers, member)
			}
		}

		if len(batch) < memberPageSize {
			log.Debugf("Fetched all %d members for guild %s", len(allMembers), guildID)
			break
		}

		last := batch[len(batch)-1]
		if last == nil || last.User == nil {
			log.Warnf("Unable to determine next pagination token, stopping at %d members", len(allMembers))
			break
		}
		after = last.User.ID
		log.Debugf("Fetching next batch for guild %s after user %s (current total: %d)",
			guildID, after, len(allMembers))
	}

	return allMembers, nil
}

// fetchMemberBatchWithRetry fetches a batch of members with exponential backoff on rate limits
func (r *MemberResolver) fetchMemberBatchWithRetry(ctx context.Context, guildID, after string) ([]*discordgo.Member, error) {
	for attempt := 0; ; attempt++ {
		batch, err := r.api.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err == nil {
			return batch, nil
		}

		if !isRateLimitError(err) {
			return nil, fmt.Errorf("failed to fetch guild members: %w", err)
		}
		if attempt >= r.maxRetries {
			return nil, fmt.Errorf("exceeded max retries for rate limit: %w", err)
		}

		waitTime := time.Duration(1<<uint(attempt)) * r.backoffUnit
		log.Warnf("Hit rate limit, waiting %v before retry %d/%d", waitTime, attempt+1, r.maxRetries)

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// isRateLimitError checks if an error is a rate limit error
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusTooManyRequests
}

// buildNameIndex indexes members by username, global display name and nickname
func buildNameIndex(members []*discordgo.Member) *guildNames {
	names := &guildNames{byType: make(map[NameType]map[string][]entities.Member)}
	for _, nameType := range nameSearchOrder {
		names.byType[nameType] = make(map[string][]entities.Member)
	}

	for _, m := range members {
		if m == nil || m.User == nil {
			continue
		}

		member := entities.Member{
			UserID:      m.User.ID,
			Username:    m.User.Username,
			DisplayName: m.User.GlobalName,
			Nickname:    m.Nick,
		}

		names.add(UsernameType, member.Username, member)
		if member.DisplayName != "" && member.DisplayName != member.Username {
			names.add(DisplayNameType, member.DisplayName, member)
		}
		if member.Nickname != "" {
			names.add(NicknameType, member.Nickname, member)
		}
	}

	return names
}

func (g *guildNames) add(nameType NameType, name string, member entities.Member) {
	if name == "" {
		return
	}
	g.byType[nameType][name] = append(g.byType[nameType][name], member)
}
