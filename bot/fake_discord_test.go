package bot

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeDiscord is an in-memory stand-in for the Discord REST API
type fakeDiscord struct {
	mu sync.Mutex

	guilds  map[string]*discordgo.Guild
	roles   map[string][]*discordgo.Role
	members map[string][]*discordgo.Member

	guildErr     error
	roleAddErr   error
	membersErr   error
	rateLimits   int // GuildMembers calls that fail with 429 before succeeding
	memberCalls  int
	roleAdds     []string
	guildLookups int
}

func newFakeDiscord() *fakeDiscord {
	return &fakeDiscord{
		guilds:  make(map[string]*discordgo.Guild),
		roles:   make(map[string][]*discordgo.Role),
		members: make(map[string][]*discordgo.Member),
	}
}

func (f *fakeDiscord) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guildLookups++
	if f.guildErr != nil {
		return nil, f.guildErr
	}
	g, ok := f.guilds[guildID]
	if !ok {
		return nil, errors.New("HTTP 404 Not Found, {\"message\": \"Unknown Guild\", \"code\": 10004}")
	}
	return g, nil
}

func (f *fakeDiscord) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[guildID], nil
}

func (f *fakeDiscord) GuildMembers(guildID string, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	if f.rateLimits > 0 {
		f.rateLimits--
		return nil, &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusTooManyRequests},
		}
	}

	all := f.members[guildID]
	start := 0
	if after != "" {
		for i, m := range all {
			if m.User.ID == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeDiscord) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleAddErr != nil {
		return f.roleAddErr
	}
	f.roleAdds = append(f.roleAdds, fmt.Sprintf("%s/%s/%s", guildID, userID, roleID))
	return nil
}

func member(id, username, globalName, nick string) *discordgo.Member {
	return &discordgo.Member{
		User: &discordgo.User{ID: id, Username: username, GlobalName: globalName},
		Nick: nick,
	}
}
