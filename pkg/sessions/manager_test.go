package sessions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warren-tools/warren/command"
	"github.com/warren-tools/warren/config"
	"github.com/warren-tools/warren/errors"
	"github.com/warren-tools/warren/git"
	"github.com/warren-tools/warren/pkg/process"
	"github.com/warren-tools/warren/registry"
	"github.com/warren-tools/warren/testutil"
)

type fakeSpawner struct {
	nextPID     int
	spawned     []process.SpawnOptions
	terminated  []int
	foregrounds []process.SpawnOptions
	spawnErr    error
}

func (f *fakeSpawner) SpawnDetached(opts process.SpawnOptions) (int, error) {
	if f.spawnErr != nil {
		return 0, f.spawnErr
	}
	f.spawned = append(f.spawned, opts)
	f.nextPID++
	return f.nextPID, nil
}

func (f *fakeSpawner) Terminate(pid int) error {
	f.terminated = append(f.terminated, pid)
	return nil
}

func (f *fakeSpawner) RunForeground(opts process.SpawnOptions) error {
	f.foregrounds = append(f.foregrounds, opts)
	return nil
}

type fakeProber struct {
	alive map[int]bool
}

func (f *fakeProber) IsAlive(pid int) bool {
	return f.alive[pid]
}

func discardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "sessions")
}

func newTestManager(t *testing.T, spawner Spawner, prober process.Prober) *Manager {
	t.Helper()

	repo := t.TempDir()
	testutil.InitGitRepo(t, repo)
	t.Setenv("WARREN_HOME", t.TempDir())

	project, err := config.InitProject(repo, "proj")
	require.NoError(t, err)

	return &Manager{
		repoRoot:  repo,
		project:   project,
		cfg:       config.DefaultConfig(),
		worktrees: git.NewWorktreeManager(),
		store:     registry.NewFileStore(config.WarrenDir(repo)),
		prober:    prober,
		spawner:   spawner,
		validator: command.NewSafeBuilder(),
		log:       discardLogger(),
	}
}

func TestNewManagerRequiresRepository(t *testing.T) {
	_, err := NewManager(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotARepository, errors.GetCode(err))
}

func TestNewManagerRequiresInitializedProject(t *testing.T) {
	repo := t.TempDir()
	testutil.InitGitRepo(t, repo)

	_, err := NewManager(repo)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProjectNotInitialized, errors.GetCode(err))
}

func TestCreateWithExplicitName(t *testing.T) {
	spawner := &fakeSpawner{nextPID: 1000}
	m := newTestManager(t, spawner, &fakeProber{alive: map[int]bool{1001: true}})

	view, err := m.Create(context.Background(), "featx")
	require.NoError(t, err)

	assert.Equal(t, "featx", view.Name)
	assert.Equal(t, registry.Running, view.Status)
	assert.Equal(t, "featx", view.Branch)
	assert.Equal(t, git.Clean, view.Cleanliness)
	assert.Equal(t, 1001, view.PID)

	// Worktree path is deterministic under the data dir.
	assert.Contains(t, view.WorktreePath, filepath.Join("projects", "proj", "featx"))
	_, err = os.Stat(view.WorktreePath)
	assert.NoError(t, err)

	// The agent was spawned inside the worktree.
	require.Len(t, spawner.spawned, 1)
	assert.Equal(t, view.WorktreePath, spawner.spawned[0].Dir)
	assert.Equal(t, "claude", spawner.spawned[0].Executable)
	assert.Contains(t, spawner.spawned[0].Args, "--dangerously-skip-permissions")

	// The record survived the invocation.
	reg, err := m.store.Load()
	require.NoError(t, err)
	rec := reg.Get("featx")
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 1001, rec.PID)
}

func TestCreateGeneratesName(t *testing.T) {
	spawner := &fakeSpawner{}
	m := newTestManager(t, spawner, &fakeProber{alive: map[int]bool{}})

	view, err := m.Create(context.Background(), "")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-z]+-[a-z]+$`), view.Name)

	exists, err := git.BranchExists(m.repoRoot, view.Name)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateRejectsInvalidName(t *testing.T) {
	m := newTestManager(t, &fakeSpawner{}, &fakeProber{})

	_, err := m.Create(context.Background(), "bad name!")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestCreateNameCollision(t *testing.T) {
	m := newTestManager(t, &fakeSpawner{}, &fakeProber{})

	_, err := m.Create(context.Background(), "dup")
	require.NoError(t, err)

	_, err = m.Create(context.Background(), "dup")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNameCollision, errors.GetCode(err))
}

func TestCreateRollsBackWorktreeOnSpawnFailure(t *testing.T) {
	spawner := &fakeSpawner{spawnErr: errors.AgentNotAvailable("claude")}
	m := newTestManager(t, spawner, &fakeProber{})

	_, err := m.Create(context.Background(), "doomed")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAgentNotAvailable, errors.GetCode(err))

	// No worktree, no record left behind.
	worktrees, err := m.worktrees.List(context.Background(), m.repoRoot)
	require.NoError(t, err)
	assert.Len(t, worktrees, 1)

	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.Nil(t, reg.Get("doomed"))
}

// failingSaveStore delegates to a real store but fails every Save.
type failingSaveStore struct {
	registry.Store
}

func (s *failingSaveStore) Save(reg *registry.Registry) error {
	return fmt.Errorf("disk full")
}

func TestCreateReportsUnrecordedSessionWithPid(t *testing.T) {
	spawner := &fakeSpawner{nextPID: 500}
	m := newTestManager(t, spawner, &fakeProber{})
	m.store = &failingSaveStore{Store: m.store}

	_, err := m.Create(context.Background(), "orphan")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionUnrecorded, errors.GetCode(err))

	// The agent did start; its PID must survive in the error details.
	var warrenErr *errors.WarrenError
	require.ErrorAs(t, err, &warrenErr)
	assert.Equal(t, 501, warrenErr.Details["pid"])
}

func TestListMergesFactsAndLiveness(t *testing.T) {
	spawner := &fakeSpawner{nextPID: 100}
	prober := &fakeProber{alive: map[int]bool{101: true}}
	m := newTestManager(t, spawner, prober)

	_, err := m.Create(context.Background(), "alpha") // pid 101, alive
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "beta") // pid 102, dead
	require.NoError(t, err)

	views, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "alpha", views[0].Name)
	assert.Equal(t, registry.Running, views[0].Status)
	assert.Equal(t, "alpha", views[0].Branch)
	assert.NotEmpty(t, views[0].Commit)

	assert.Equal(t, "beta", views[1].Name)
	assert.Equal(t, registry.Dead, views[1].Status)
}

func TestListReportsMissingWorktreeAsUnknown(t *testing.T) {
	spawner := &fakeSpawner{}
	m := newTestManager(t, spawner, &fakeProber{})

	view, err := m.Create(context.Background(), "ghost")
	require.NoError(t, err)

	// Simulate the worktree vanishing out of band.
	require.NoError(t, os.RemoveAll(view.WorktreePath))

	views, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, git.Unknown, views[0].Cleanliness)
}

func TestRemoveStopsAgentAndDeletesEverything(t *testing.T) {
	spawner := &fakeSpawner{nextPID: 200}
	m := newTestManager(t, spawner, &fakeProber{alive: map[int]bool{201: true}})

	view, err := m.Create(context.Background(), "victim")
	require.NoError(t, err)

	require.NoError(t, m.Remove(context.Background(), "victim", false))

	assert.Equal(t, []int{201}, spawner.terminated)

	_, err = os.Stat(view.WorktreePath)
	assert.True(t, os.IsNotExist(err))

	exists, err := git.BranchExists(m.repoRoot, "victim")
	require.NoError(t, err)
	assert.False(t, exists)

	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.Nil(t, reg.Get("victim"))
}

func TestRemoveUnknownSession(t *testing.T) {
	m := newTestManager(t, &fakeSpawner{}, &fakeProber{})

	err := m.Remove(context.Background(), "nope", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.GetCode(err))
}

func TestRemoveDirtyRequiresForce(t *testing.T) {
	spawner := &fakeSpawner{}
	m := newTestManager(t, spawner, &fakeProber{})

	view, err := m.Create(context.Background(), "messy")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(view.WorktreePath, "wip.txt"), []byte("wip"), 0600))

	err = m.Remove(context.Background(), "messy", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUncommittedChanges, errors.GetCode(err))

	// The refused removal must not have stopped the agent.
	assert.Empty(t, spawner.terminated)

	require.NoError(t, m.Remove(context.Background(), "messy", true))
	_, err = os.Stat(view.WorktreePath)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveRefusesCurrentWorktree(t *testing.T) {
	spawner := &fakeSpawner{}
	m := newTestManager(t, spawner, &fakeProber{})

	view, err := m.Create(context.Background(), "herein")
	require.NoError(t, err)

	// Stand inside the session worktree, as a shell rooted there would.
	t.Chdir(view.WorktreePath)

	err = m.Remove(context.Background(), "herein", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCannotRemoveCurrent, errors.GetCode(err))

	// Force does not override the protection either.
	err = m.Remove(context.Background(), "herein", true)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCannotRemoveCurrent, errors.GetCode(err))

	// The refusal happened before any side effects.
	assert.Empty(t, spawner.terminated)
	_, err = os.Stat(view.WorktreePath)
	assert.NoError(t, err)

	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.NotNil(t, reg.Get("herein"))
}

func TestRemoveCleansUpWhenWorktreeAlreadyGone(t *testing.T) {
	spawner := &fakeSpawner{}
	m := newTestManager(t, spawner, &fakeProber{})

	view, err := m.Create(context.Background(), "vanished")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(view.WorktreePath))

	require.NoError(t, m.Remove(context.Background(), "vanished", false))

	exists, err := git.BranchExists(m.repoRoot, "vanished")
	require.NoError(t, err)
	assert.False(t, exists)

	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.Nil(t, reg.Get("vanished"))
}

func TestAttachUpdatesLastAccessed(t *testing.T) {
	spawner := &fakeSpawner{}
	m := newTestManager(t, spawner, &fakeProber{})

	view, err := m.Create(context.Background(), "focus")
	require.NoError(t, err)

	before := view.LastAccessedAt
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, m.Attach(context.Background(), "focus"))

	require.Len(t, spawner.foregrounds, 1)
	assert.Equal(t, view.WorktreePath, spawner.foregrounds[0].Dir)
	assert.NotContains(t, spawner.foregrounds[0].Args, "--dangerously-skip-permissions")

	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.True(t, reg.Get("focus").LastAccessedAt.After(before))
}

func TestAttachUnknownSession(t *testing.T) {
	m := newTestManager(t, &fakeSpawner{}, &fakeProber{})

	err := m.Attach(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.GetCode(err))
}

func TestRestoreAllRespawnsDeadAgents(t *testing.T) {
	spawner := &fakeSpawner{nextPID: 300}
	prober := &fakeProber{alive: map[int]bool{302: true}}
	m := newTestManager(t, spawner, prober)

	_, err := m.Create(context.Background(), "fallen") // pid 301, dead
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "alive") // pid 302, running
	require.NoError(t, err)

	restored, err := m.RestoreAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	reg, err := m.store.Load()
	require.NoError(t, err)
	// The dead session got a fresh PID; the live one is untouched.
	assert.Equal(t, 303, reg.Get("fallen").PID)
	assert.Equal(t, 302, reg.Get("alive").PID)
}

func TestRepairPrunesStaleRecords(t *testing.T) {
	spawner := &fakeSpawner{nextPID: 400}
	prober := &fakeProber{alive: map[int]bool{402: true}}
	m := newTestManager(t, spawner, prober)

	stale, err := m.Create(context.Background(), "stale") // pid 401, dead
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "healthy") // pid 402, running
	require.NoError(t, err)

	// Dead process and a missing worktree qualify the record for GC.
	require.NoError(t, os.RemoveAll(stale.WorktreePath))

	report, err := m.Repair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, report.Pruned)
	assert.Empty(t, report.BackupPath)

	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.Nil(t, reg.Get("stale"))
	assert.NotNil(t, reg.Get("healthy"))

	exists, err := git.BranchExists(m.repoRoot, "stale")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepairKeepsDeadSessionWithSurvivingWorktree(t *testing.T) {
	spawner := &fakeSpawner{}
	m := newTestManager(t, spawner, &fakeProber{})

	_, err := m.Create(context.Background(), "paused") // dead pid, tree intact
	require.NoError(t, err)

	report, err := m.Repair(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Pruned)

	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.NotNil(t, reg.Get("paused"))
}

func TestRepairQuarantinesCorruptRegistry(t *testing.T) {
	m := newTestManager(t, &fakeSpawner{}, &fakeProber{})

	require.NoError(t, os.WriteFile(m.store.Path(), []byte("{broken"), 0644))

	report, err := m.Repair(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.BackupPath)

	// Registry is usable again afterwards.
	reg, err := m.store.Load()
	require.NoError(t, err)
	assert.Empty(t, reg.Sessions)
}

// End to end with a real agent process: spawn, probe, terminate.
func TestSessionLifecycleWithRealAgent(t *testing.T) {
	testutil.StubAgent(t, "warren-test-agent")

	m := newTestManager(t, osSpawner{}, process.OSProber{})
	m.cfg.Agent.Executable = "warren-test-agent"

	view, err := m.Create(context.Background(), "realdeal")
	require.NoError(t, err)
	require.Greater(t, view.PID, 0)
	assert.Equal(t, registry.Running, view.Status)
	assert.True(t, process.IsAlive(view.PID))

	require.NoError(t, m.Remove(context.Background(), "realdeal", false))

	deadline := time.Now().Add(5 * time.Second)
	for process.IsAlive(view.PID) && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	assert.False(t, process.IsAlive(view.PID))
}
