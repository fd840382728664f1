package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mott-dev/mott/internal/ledger"
	"github.com/mott-dev/mott/internal/model"
)

func entry(actor string, value int64) model.Transaction {
	return model.Transaction{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Actor:     actor,
		Value:     decimal.NewFromInt(value),
	}
}

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir)
	require.NoError(t, err)
	return s
}

func TestCreateDeleteAccount(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, "squadron", "CEO"))
	assert.ErrorIs(t, s.CreateAccount(ctx, "squadron", "other"), ledger.ErrAccountExists)

	role, err := s.OwningRole(ctx, "squadron")
	require.NoError(t, err)
	assert.Equal(t, "CEO", role)

	_, err = s.Append(ctx, "squadron", entry("BoneW", 100))
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, "squadron"))
	assert.ErrorIs(t, s.DeleteAccount(ctx, "squadron"), ledger.ErrAccountNotFound)

	// The log file goes with the account.
	_, err = os.Stat(filepath.Join(dir, "logs", "squadron.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := openStore(t, dir)
	require.NoError(t, s.CreateAccount(ctx, "squadron", "CEO"))
	paid := entry("BoneW", 820000)
	paid.Verified = true
	paid.CorrelationKey = "general/msg-1"
	_, err := s.Append(ctx, "squadron", paid)
	require.NoError(t, err)
	_, err = s.Append(ctx, "squadron", entry("greyL", -40))
	require.NoError(t, err)

	// A fresh store over the same directory sees identical state.
	s2 := openStore(t, dir)
	role, err := s2.OwningRole(ctx, "squadron")
	require.NoError(t, err)
	assert.Equal(t, "CEO", role)

	log, err := s2.Transactions(ctx, "squadron")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, 0, log[0].SeqID)
	assert.Equal(t, "BoneW", log[0].Actor)
	assert.True(t, log[0].Value.Equal(decimal.NewFromInt(820000)))
	assert.True(t, log[0].Verified)
	assert.Equal(t, "general/msg-1", log[0].CorrelationKey)
	assert.Equal(t, 1, log[1].SeqID)
	assert.True(t, log[1].Value.IsNegative())
}

func TestSequenceSurvivesRemovalAndReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := openStore(t, dir)
	require.NoError(t, s.CreateAccount(ctx, "squadron", "CEO"))
	keyed := entry("BoneW", 100)
	keyed.CorrelationKey = "general/msg-1"
	_, err := s.Append(ctx, "squadron", keyed)
	require.NoError(t, err)
	_, err = s.Append(ctx, "squadron", entry("greyL", 50))
	require.NoError(t, err)

	removed, err := s.RemoveByCorrelation(ctx, "squadron", "general/msg-1")
	require.NoError(t, err)
	require.Len(t, removed, 1)

	// Even through a reopen, old ids are not reissued.
	s2 := openStore(t, dir)
	tx, err := s2.Append(ctx, "squadron", entry("greyMalding", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, tx.SeqID)
}

func TestRemoveByCorrelationNoMatch(t *testing.T) {
	s := openStore(t, t.TempDir())
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, "squadron", "CEO"))

	_, err := s.RemoveByCorrelation(ctx, "squadron", "general/msg-9")
	assert.ErrorIs(t, err, ledger.ErrNoMatch)
	_, err = s.RemoveByCorrelation(ctx, "missing", "general/msg-9")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestFreshAccountHasEmptyLog(t *testing.T) {
	s := openStore(t, t.TempDir())
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, "squadron", "CEO"))

	log, err := s.Transactions(ctx, "squadron")
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestUnreadableLogIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, "squadron", "CEO"))
	_, err := s.Append(ctx, "squadron", entry("BoneW", 100))
	require.NoError(t, err)

	path := filepath.Join(dir, "logs", "squadron.csv")
	require.NoError(t, os.WriteFile(path, []byte(LogHeader+"\nnot,a,valid,row\n"), 0o644))

	_, err = s.Transactions(ctx, "squadron")
	assert.ErrorIs(t, err, ledger.ErrCorrupt)
}

func TestAccountNamesEscapedOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	ctx := context.Background()

	const name = "trade runs/2026"
	require.NoError(t, s.CreateAccount(ctx, name, "CEO"))
	_, err := s.Append(ctx, name, entry("BoneW", 1))
	require.NoError(t, err)

	names, err := s.AccountNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)

	log, err := s.Transactions(ctx, name)
	require.NoError(t, err)
	assert.Len(t, log, 1)
}
