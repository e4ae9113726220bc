package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const PROFILE = "https://steamcommunity.com/id/buyer/"

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "courier", cmd.Use)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, cmdName := range []string{"serve", "reset", "create", "show"} {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDb(t *testing.T) string {
	dir, err := os.MkdirTemp("", "cli")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "courier.db")
}

func TestCreateShowReset(t *testing.T) {
	db := tempDb(t)

	out, err := execute(t, "--db", db, "create", "CODE1", "--recipient", "link: "+PROFILE, "--now")
	require.NoError(t, err)
	var created model.Delivery
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Equal(t, "CODE1", created.Code)
	require.Equal(t, PROFILE, created.RecipientRef)
	require.Equal(t, created.CreatedAt, created.ScheduledAt)

	_, err = execute(t, "--db", db, "create", "CODE1")
	require.ErrorIs(t, err, dao.ErrAlreadyExists)

	_, err = execute(t, "--db", db, "create", "CODE2", "--recipient", "nope")
	require.Error(t, err)

	out, err = execute(t, "--db", db, "show", "CODE1")
	require.NoError(t, err)
	require.Contains(t, out, `"Code": "CODE1"`)

	_, err = execute(t, "--db", db, "show", "MISSING")
	require.ErrorIs(t, err, dao.ErrNotFound)

	//simulate a crash mid-delivery
	store, err := dao.Open(db)
	require.NoError(t, err)
	_, err = dao.NewDeliveryDao(store).Mutate("CODE1", func(d *model.Delivery) error {
		return d.Advance(model.AwaitingFriendAcceptance)
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err = execute(t, "--db", db, "reset")
	require.NoError(t, err)
	require.Equal(t, "1 deliveries reset\n", out)

	out, err = execute(t, "--db", db, "show")
	require.NoError(t, err)
	var all []model.Delivery
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 1)
	require.Equal(t, model.WaitingUntilDelivery, all[0].Status)
}
