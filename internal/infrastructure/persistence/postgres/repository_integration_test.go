//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coffee-roulette/roulette-hub/internal/domain/roulette"
	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// startPostgres runs a throwaway PostgreSQL container and returns a migrated connection.
func startPostgres(t *testing.T) *Connection {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "roulette",
			"POSTGRES_PASSWORD": "roulette",
			"POSTGRES_DB":       "roulette",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Skipping test: cannot start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := "postgres://roulette:roulette@" + host + ":" + port.Port() + "/roulette?sslmode=disable"
	conn, err := NewConnection(ctx, DefaultConfig(url))
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	applied, err := NewMigrator(conn).Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, applied)

	return conn
}

func createUsers(t *testing.T, repo *UserRepository, names ...string) []roulette.User {
	t.Helper()
	users := make([]roulette.User, 0, len(names))
	for _, name := range names {
		u, err := roulette.NewUser(name, name+"@example.com")
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), u))
		users = append(users, *u)
	}
	return users
}

func TestRepositories_Integration(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	users := NewUserRepository(conn)
	roulettes := NewRouletteRepository(conn)
	votes := NewVoteRepository(conn)
	matches := NewMatchRepository(conn)
	groups := NewGroupRepository(conn)
	penalties := NewPenaltyRepository(conn)

	created := createUsers(t, users, "alice", "bob", "carol", "dave")

	now := time.Now().UTC().Truncate(time.Second)
	rt, err := roulette.NewRoulette(now.Add(-time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, roulettes.Create(ctx, rt))

	t.Run("roulette creation gives every user a default vote", func(t *testing.T) {
		list, err := votes.ListByRoulette(ctx, rt.ID)
		require.NoError(t, err)
		require.Len(t, list, 4)
		for _, v := range list {
			assert.Equal(t, roulette.ChoiceNone, v.Choice)
		}
	})

	t.Run("new user gets a vote in open roulettes", func(t *testing.T) {
		late := createUsers(t, users, "erin")
		created = append(created, late...)

		list, err := votes.ListByRoulette(ctx, rt.ID)
		require.NoError(t, err)
		assert.Len(t, list, 5)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		u, err := roulette.NewUser("alice again", "alice@example.com")
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, u), shared.ErrUserAlreadyExists)
	})

	t.Run("yes votes become participants", func(t *testing.T) {
		for _, u := range created[:4] {
			require.NoError(t, votes.SetChoice(ctx, rt.ID, u.ID, roulette.ChoiceYes))
		}
		require.NoError(t, votes.SetChoice(ctx, rt.ID, created[4].ID, roulette.ChoiceNo))

		participants, err := votes.ParticipatingUsers(ctx, rt.ID)
		require.NoError(t, err)
		assert.Len(t, participants, 4)
	})

	t.Run("penalty settings round trip with defaults", func(t *testing.T) {
		cfg, err := penalties.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, roulette.DefaultPenaltyConfig(), cfg)

		cfg.ForbiddenGrouping = 25
		require.NoError(t, penalties.Save(ctx, cfg))

		got, err := penalties.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 25.0, got.ForbiddenGrouping)
	})

	t.Run("groups are saved with members", func(t *testing.T) {
		eg := &roulette.ExclusionGroup{Members: created[:2]}
		require.NoError(t, groups.SaveExclusionGroup(ctx, eg))
		assert.NotZero(t, eg.ID)

		pg := &roulette.PenaltyGroup{CustomName: "team", Members: created[1:3]}
		require.NoError(t, groups.SavePenaltyGroup(ctx, pg))

		exclusion, err := groups.ExclusionGroups(ctx)
		require.NoError(t, err)
		require.Len(t, exclusion, 1)
		assert.Equal(t, "alice, bob", exclusion[0].Name())

		penalty, err := groups.PenaltyGroups(ctx)
		require.NoError(t, err)
		require.Len(t, penalty, 1)
		assert.Equal(t, "team", penalty[0].Name())
		assert.Len(t, penalty[0].Members, 2)
	})

	t.Run("finalize rejects unknown users without side effects", func(t *testing.T) {
		err := roulettes.FinalizeMatches(ctx, roulette.FinalizeRequest{
			RouletteID: rt.ID,
			Groups:     [][]roulette.UserID{{created[0].ID, 999999}},
			At:         now,
		})
		assert.ErrorIs(t, err, shared.ErrUserNotFound)

		got, err := roulettes.GetByID(ctx, rt.ID)
		require.NoError(t, err)
		assert.False(t, got.IsFinalized())
	})

	t.Run("concurrent finalize has exactly one winner", func(t *testing.T) {
		req := roulette.FinalizeRequest{
			RouletteID: rt.ID,
			Groups: [][]roulette.UserID{
				{created[0].ID, created[2].ID},
				{created[1].ID, created[3].ID},
			},
			At: now,
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = roulettes.FinalizeMatches(ctx, req)
			}(i)
		}
		wg.Wait()

		var ok, conflicts int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, shared.ErrRouletteAlreadyFinalized):
				conflicts++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, conflicts)

		stored, err := matches.ByRoulette(ctx, rt.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 2)

		history, err := matches.History(ctx)
		require.NoError(t, err)
		assert.Len(t, history, 2)
		for _, pm := range history {
			assert.True(t, pm.CompletedAt.Equal(now))
		}

		last, err := roulettes.LastCompleted(ctx)
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, rt.ID, last.ID)
	})

	t.Run("votes are locked after finalize", func(t *testing.T) {
		err := votes.SetChoice(ctx, rt.ID, created[0].ID, roulette.ChoiceNo)
		assert.ErrorIs(t, err, shared.ErrVotesLocked)
	})

	t.Run("finalize before vote deadline is rejected", func(t *testing.T) {
		open, err := roulette.NewRoulette(now.Add(time.Hour), now.Add(48*time.Hour))
		require.NoError(t, err)
		require.NoError(t, roulettes.Create(ctx, open))

		err = roulettes.FinalizeMatches(ctx, roulette.FinalizeRequest{
			RouletteID: open.ID,
			Groups:     [][]roulette.UserID{{created[0].ID, created[1].ID}},
			At:         now,
		})
		assert.ErrorIs(t, err, shared.ErrVotingNotFinished)

		current, err := roulettes.ListCurrent(ctx, now)
		require.NoError(t, err)
		assert.Len(t, current, 2)
	})
}
