// Package sessions is the orchestration facade. It composes the git
// worktree store, the session registry, the process controller, and the
// project configuration into the operations the CLI exposes.
package sessions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warren-tools/warren/command"
	"github.com/warren-tools/warren/config"
	"github.com/warren-tools/warren/errors"
	"github.com/warren-tools/warren/git"
	"github.com/warren-tools/warren/logging"
	"github.com/warren-tools/warren/pkg/namegen"
	"github.com/warren-tools/warren/pkg/paths"
	"github.com/warren-tools/warren/pkg/process"
	"github.com/warren-tools/warren/registry"
	"github.com/warren-tools/warren/util/sanitize"
)

// Spawner abstracts agent process control for tests.
type Spawner interface {
	SpawnDetached(opts process.SpawnOptions) (int, error)
	Terminate(pid int) error
	RunForeground(opts process.SpawnOptions) error
}

// osSpawner is the production Spawner.
type osSpawner struct{}

func (osSpawner) SpawnDetached(opts process.SpawnOptions) (int, error) {
	return process.SpawnDetached(opts)
}

func (osSpawner) Terminate(pid int) error {
	return process.Terminate(pid)
}

func (osSpawner) RunForeground(opts process.SpawnOptions) error {
	return process.RunForeground(opts)
}

// View is the merged, read-only picture of one session: registry facts,
// worktree facts, and derived liveness.
type View struct {
	Name           string           `json:"name"`
	Status         registry.Status  `json:"status"`
	Branch         string           `json:"branch"`
	Commit         string           `json:"commit"`
	Cleanliness    git.Cleanliness  `json:"cleanliness"`
	WorktreePath   string           `json:"worktree_path"`
	PID            int              `json:"pid,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
}

// RepairReport summarizes what a Repair pass did.
type RepairReport struct {
	// BackupPath is set when a corrupt registry was quarantined.
	BackupPath string `json:"backup_path,omitempty"`
	// Pruned lists sessions whose records were garbage collected.
	Pruned []string `json:"pruned"`
}

// Manager composes the stores behind the session operations.
type Manager struct {
	repoRoot  string
	project   *config.Project
	cfg       *config.Config
	worktrees git.WorktreeProvider
	store     registry.Store
	prober    process.Prober
	spawner   Spawner
	validator *command.SafeBuilder
	log       *logrus.Entry
}

// NewManager wires a Manager for the repository containing dir. The
// repository must exist and the project must be initialized.
func NewManager(dir string) (*Manager, error) {
	if !git.IsRepository(dir) {
		return nil, errors.NotARepository(dir)
	}

	repoRoot, err := git.GetGitRoot(dir)
	if err != nil {
		return nil, err
	}

	project, err := config.LoadProject(repoRoot)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, err
	}

	var logCfg logging.Config
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}

	return &Manager{
		repoRoot:  repoRoot,
		project:   project,
		cfg:       cfg,
		worktrees: git.NewWorktreeManager(),
		store:     registry.NewFileStore(config.WarrenDir(repoRoot)),
		prober:    process.OSProber{},
		spawner:   osSpawner{},
		validator: command.NewSafeBuilder(),
		log:       logging.NewLoggerWithConfig("sessions", logCfg),
	}, nil
}

// Project returns the project identity the manager operates on.
func (m *Manager) Project() *config.Project {
	return m.project
}

// Create provisions a session: a fresh branch and worktree forked from the
// base branch, a detached agent running inside it, and a registry record.
// An empty name asks for a generated one.
func (m *Manager) Create(ctx context.Context, name string) (*View, error) {
	reg, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	name, err = m.resolveName(reg, name)
	if err != nil {
		return nil, err
	}

	branch := m.cfg.BranchPrefix + name
	wtPath := filepath.Join(paths.ProjectSessionsDir(m.project.Name), name)

	base := m.cfg.BaseBranch
	if base == "" {
		base, err = git.DefaultBranch(m.repoRoot, m.cfg.Remote)
		if err != nil {
			return nil, err
		}
	}

	// Fork from fresh refs when a remote exists. An unreachable remote is
	// a hard error; stale bases produce confusing sessions.
	if git.HasRemote(m.repoRoot, m.cfg.Remote) {
		if err := git.Fetch(ctx, m.repoRoot, m.cfg.Remote); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(wtPath), 0755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}

	if err := m.worktrees.Create(ctx, m.repoRoot, wtPath, branch, base); err != nil {
		return nil, err
	}

	logPath := filepath.Join(paths.AgentLogDir(m.project.Name), sanitize.ForFileName(name)+".log")
	pid, err := m.spawner.SpawnDetached(process.SpawnOptions{
		Executable: m.cfg.Agent.Executable,
		Args:       detachedArgs(m.cfg),
		Dir:        wtPath,
		LogPath:    logPath,
		Env:        agentEnv(m.cfg),
	})
	if err != nil {
		// Roll the worktree back; a session without an agent that never
		// started is just clutter.
		if wt, findErr := m.worktrees.Find(ctx, m.repoRoot, wtPath); findErr == nil && wt != nil {
			if rmErr := m.worktrees.Remove(ctx, m.repoRoot, wt, true); rmErr != nil {
				m.log.WithError(rmErr).WithField("path", wtPath).Warn("Failed to roll back worktree after spawn failure")
			}
		}
		return nil, err
	}

	now := time.Now().UTC()
	rec := &registry.Record{
		ID:             uuid.NewString(),
		Name:           name,
		PID:            pid,
		WorktreePath:   wtPath,
		StartedAt:      now,
		LastAccessedAt: now,
	}
	reg.Put(rec)

	if err := m.store.Save(reg); err != nil {
		// The agent is already running; losing the PID silently would
		// orphan it. Surface the PID so the user can recover.
		m.log.WithError(err).WithFields(logrus.Fields{
			"session": name,
			"pid":     pid,
		}).Error("Session started but registry write failed")
		return nil, errors.SessionUnrecorded(name, pid, err)
	}

	m.log.WithFields(logrus.Fields{
		"session": name,
		"branch":  branch,
		"pid":     pid,
	}).Info("Session created")

	view := m.buildView(ctx, rec)
	return &view, nil
}

// List merges worktree facts, registry records, and liveness. It is a pure
// read; nothing is mutated or persisted.
func (m *Manager) List(ctx context.Context) ([]View, error) {
	reg, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	worktrees, err := m.worktrees.List(ctx, m.repoRoot)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]*git.Worktree, len(worktrees))
	for i := range worktrees {
		byPath[worktrees[i].Path] = &worktrees[i]
	}

	statuses := registry.Reconcile(reg, m.prober)
	views := make([]View, 0, len(reg.Sessions))
	for _, rec := range reg.Sessions {
		view := View{
			Name:           rec.Name,
			Status:         statuses[rec.Name],
			WorktreePath:   rec.WorktreePath,
			PID:            rec.PID,
			StartedAt:      rec.StartedAt,
			LastAccessedAt: rec.LastAccessedAt,
			Cleanliness:    git.Unknown,
		}
		if wt, ok := byPath[rec.WorktreePath]; ok {
			view.Branch = wt.Branch
			view.Commit = wt.Commit
			view.Cleanliness = wt.Cleanliness
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

// Remove tears a session down: stop the agent, remove worktree and branch,
// drop the record. Protection rules are enforced before anything is touched.
func (m *Manager) Remove(ctx context.Context, name string, force bool) error {
	reg, err := m.store.Load()
	if err != nil {
		return err
	}

	rec := reg.Get(name)
	if rec == nil {
		return errors.SessionNotFound(name)
	}

	wt, err := m.worktrees.Find(ctx, m.repoRoot, rec.WorktreePath)
	if err != nil {
		return err
	}

	// Protection before side effects: a refused removal must leave the
	// agent running.
	if wt != nil {
		if wt.IsPrimary {
			return errors.CannotRemovePrimary(wt.Path)
		}
		if wt.IsCurrent {
			return errors.CannotRemoveCurrent(wt.Path)
		}
		if wt.Cleanliness == git.Dirty && !force {
			return errors.UncommittedChanges(wt.Path)
		}
	}

	if err := m.spawner.Terminate(rec.PID); err != nil {
		return err
	}

	if wt != nil {
		if err := m.worktrees.Remove(ctx, m.repoRoot, wt, force); err != nil {
			return err
		}
	} else {
		// Worktree already gone; clean up git's bookkeeping and the branch.
		if err := m.worktrees.Prune(ctx, m.repoRoot); err != nil {
			m.log.WithError(err).Warn("Worktree prune failed")
		}
		if err := git.DeleteBranch(m.repoRoot, m.cfg.BranchPrefix+name); err != nil {
			m.log.WithError(err).WithField("session", name).Warn("Branch cleanup failed")
		}
	}

	reg.Delete(name)
	if err := m.store.Save(reg); err != nil {
		return err
	}

	m.log.WithField("session", name).Info("Session removed")
	return nil
}

// Attach runs the agent in the foreground inside the session worktree,
// blocking until it exits. The record's access time is updated first.
func (m *Manager) Attach(ctx context.Context, name string) error {
	reg, err := m.store.Load()
	if err != nil {
		return err
	}

	rec := reg.Get(name)
	if rec == nil {
		return errors.SessionNotFound(name)
	}

	if _, err := os.Stat(rec.WorktreePath); err != nil {
		return errors.SessionNotFound(name).
			WithDetail("path", rec.WorktreePath).
			WithDetail("remediation", "the session worktree is missing; run 'warren repair'")
	}

	rec.LastAccessedAt = time.Now().UTC()
	if err := m.store.Save(reg); err != nil {
		return err
	}

	m.log.WithField("session", name).Info("Attaching to session")
	return m.spawner.RunForeground(process.SpawnOptions{
		Executable: m.cfg.Agent.Executable,
		Args:       m.cfg.Agent.Args,
		Dir:        rec.WorktreePath,
		Env:        agentEnv(m.cfg),
	})
}

// RestoreAll re-spawns agents for sessions whose process died. Individual
// failures are logged and skipped so one bad session cannot block the rest.
func (m *Manager) RestoreAll(ctx context.Context) (int, error) {
	reg, err := m.store.Load()
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, rec := range reg.Sessions {
		if registry.Classify(rec, m.prober) != registry.Dead {
			continue
		}
		if _, err := os.Stat(rec.WorktreePath); err != nil {
			m.log.WithField("session", rec.Name).Warn("Skipping restore, worktree is missing")
			continue
		}

		logPath := filepath.Join(paths.AgentLogDir(m.project.Name), sanitize.ForFileName(rec.Name)+".log")
		pid, err := m.spawner.SpawnDetached(process.SpawnOptions{
			Executable: m.cfg.Agent.Executable,
			Args:       detachedArgs(m.cfg),
			Dir:        rec.WorktreePath,
			LogPath:    logPath,
			Env:        agentEnv(m.cfg),
		})
		if err != nil {
			m.log.WithError(err).WithField("session", rec.Name).Warn("Failed to restore session agent")
			continue
		}

		rec.PID = pid
		rec.LastAccessedAt = time.Now().UTC()
		restored++
		m.log.WithFields(logrus.Fields{"session": rec.Name, "pid": pid}).Info("Session agent restored")
	}

	if restored > 0 {
		if err := m.store.Save(reg); err != nil {
			return restored, err
		}
	}
	return restored, nil
}

// Repair is the explicit garbage collection pass: quarantine a corrupt
// registry, prune records whose agent is dead and whose worktree is gone,
// and drop stale git worktree bookkeeping. Nothing is pruned silently
// outside this call.
func (m *Manager) Repair(ctx context.Context) (*RepairReport, error) {
	reg, backupPath, err := m.store.LoadOrBackup()
	if err != nil {
		return nil, err
	}

	report := &RepairReport{BackupPath: backupPath, Pruned: []string{}}
	if backupPath != "" {
		m.log.WithField("backup", backupPath).Warn("Corrupt registry backed up and reset")
	}

	statuses := registry.Reconcile(reg, m.prober)
	for name, rec := range reg.Sessions {
		if statuses[name] == registry.Running {
			continue
		}
		if _, err := os.Stat(rec.WorktreePath); err == nil {
			continue
		}

		// Dead or unstarted, and the worktree directory is gone: nothing
		// left to preserve.
		reg.Delete(name)
		report.Pruned = append(report.Pruned, name)
		if err := git.DeleteBranch(m.repoRoot, m.cfg.BranchPrefix+name); err != nil {
			m.log.WithError(err).WithField("session", name).Warn("Branch cleanup failed")
		}
		m.log.WithField("session", name).Info("Pruned stale session record")
	}

	if err := m.worktrees.Prune(ctx, m.repoRoot); err != nil {
		m.log.WithError(err).Warn("Worktree prune failed")
	}

	sort.Strings(report.Pruned)
	if err := m.store.Save(reg); err != nil {
		return nil, err
	}
	return report, nil
}

// resolveName validates a supplied session name or generates a fresh one,
// checking collisions against the registry and existing branches before any
// filesystem mutation.
func (m *Manager) resolveName(reg *registry.Registry, name string) (string, error) {
	if name != "" {
		if err := m.validator.Validate("sessionName", name); err != nil {
			return "", errors.InvalidInput(err.Error())
		}
		if reg.Get(name) != nil {
			return "", errors.NameCollision(name, "session")
		}
		if exists, err := git.BranchExists(m.repoRoot, m.cfg.BranchPrefix+name); err != nil {
			return "", err
		} else if exists {
			return "", errors.NameCollision(m.cfg.BranchPrefix+name, "branch")
		}
		return name, nil
	}

	taken := make(map[string]bool, len(reg.Sessions))
	for existing := range reg.Sessions {
		taken[existing] = true
	}

	// Branch collisions can outlive registry records, so keep drawing
	// until both namespaces are clear.
	for attempts := 0; attempts < 16; attempts++ {
		candidate := namegen.Generate(taken)
		exists, err := git.BranchExists(m.repoRoot, m.cfg.BranchPrefix+candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		taken[candidate] = true
	}
	return "", errors.InvalidInput("could not generate a unique session name")
}

// buildView assembles a View for a single record.
func (m *Manager) buildView(ctx context.Context, rec *registry.Record) View {
	view := View{
		Name:           rec.Name,
		Status:         registry.Classify(rec, m.prober),
		WorktreePath:   rec.WorktreePath,
		PID:            rec.PID,
		StartedAt:      rec.StartedAt,
		LastAccessedAt: rec.LastAccessedAt,
		Cleanliness:    git.Unknown,
	}
	if wt, err := m.worktrees.Find(ctx, m.repoRoot, rec.WorktreePath); err == nil && wt != nil {
		view.Branch = wt.Branch
		view.Commit = wt.Commit
		view.Cleanliness = wt.Cleanliness
	}
	return view
}

// detachedArgs builds the argument list for background starts. Unattended
// flags are added only here, never for interactive attach.
func detachedArgs(cfg *config.Config) []string {
	if len(cfg.Agent.UnattendedArgs) == 0 {
		return cfg.Agent.Args
	}
	args := make([]string, 0, len(cfg.Agent.Args)+len(cfg.Agent.UnattendedArgs))
	args = append(args, cfg.Agent.Args...)
	return append(args, cfg.Agent.UnattendedArgs...)
}

// agentEnv builds the child environment: the caller's environment plus any
// configured extras.
func agentEnv(cfg *config.Config) []string {
	if len(cfg.Agent.Env) == 0 {
		return nil
	}
	return append(os.Environ(), cfg.Agent.Env...)
}
