// Package app wires the board together: project, viewport,
// reconciler, renderer and the drag controller, plus the terminal
// event loop that drives them.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/schedgrid/schedgrid/internal/config"
	"github.com/schedgrid/schedgrid/internal/dom"
	"github.com/schedgrid/schedgrid/internal/drag"
	"github.com/schedgrid/schedgrid/internal/event"
	"github.com/schedgrid/schedgrid/internal/render"
	"github.com/schedgrid/schedgrid/internal/render/backend"
	"github.com/schedgrid/schedgrid/internal/sched"
	"github.com/schedgrid/schedgrid/internal/sched/rules"
	"github.com/schedgrid/schedgrid/internal/sched/store"
	"github.com/schedgrid/schedgrid/internal/timeline"
)

// ErrQuit signals a user-requested exit out of Run.
var ErrQuit = errors.New("app: quit")

// Options configures New.
type Options struct {
	Config  config.Config
	Backend backend.Backend
	Logger  *zap.Logger

	// Now supplies the board's base time; defaults to time.Now.
	Now func() time.Time

	// Seed populates the project before the first frame.
	Seed func(*sched.Project)
}

// App is the running board.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	project  *sched.Project
	store    *store.Bolt
	rules    *rules.Engine
	viewport *timeline.Viewport
	view     *boardView

	rec         *dom.Reconciler
	boardRoot   *dom.Element
	overlayRoot *dom.Element
	renderer    *render.Renderer
	ctrl        *drag.Controller

	backend backend.Backend
	redraw  chan struct{}
}

// New builds an App. The backend must be initialized by the caller.
func New(opts Options) (*App, error) {
	if opts.Backend == nil {
		return nil, errors.New("app: backend is required")
	}
	a := &App{
		cfg:     opts.Config,
		logger:  opts.Logger,
		backend: opts.Backend,
		redraw:  make(chan struct{}, 1),
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	projectOpts := []sched.ProjectOption{sched.WithProjectLogger(a.logger)}
	if opts.Config.Store != "" {
		st, err := store.Open(opts.Config.Store)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		a.store = st
		projectOpts = append(projectOpts, sched.WithStore(st))
	}
	a.project = sched.NewProject(projectOpts...)

	if a.store != nil {
		if err := a.store.LoadInto(a.project); err != nil {
			return nil, fmt.Errorf("loading board: %w", err)
		}
	}
	if opts.Seed != nil {
		opts.Seed(a.project)
	}

	if opts.Config.RulesScript != "" {
		script, err := os.ReadFile(opts.Config.RulesScript)
		if err != nil {
			return nil, fmt.Errorf("reading rules script: %w", err)
		}
		eng, err := rules.Load(string(script))
		if err != nil {
			return nil, fmt.Errorf("loading rules script: %w", err)
		}
		a.rules = eng
	}

	width, height := a.backend.Size()
	base := now().Truncate(time.Hour)
	a.viewport = &timeline.Viewport{
		X:            opts.Config.Board.BacklogWidth + 1,
		Y:            1,
		Width:        max(width-opts.Config.Board.BacklogWidth-1, 1),
		Height:       max(height-1, 1),
		Start:        base,
		CellDuration: opts.Config.Board.CellDuration(),
		SlotDuration: opts.Config.Board.SlotDuration(),
		RowHeight:    opts.Config.Board.RowHeight,
		Lanes:        a.project.Lanes(),
		Project:      a.project,
	}
	a.view = &boardView{
		project:      a.project,
		viewport:     a.viewport,
		backlogWidth: opts.Config.Board.BacklogWidth,
	}

	a.rec = dom.NewReconciler(
		dom.WithReleaseThreshold(opts.Config.PoolSize),
		dom.WithReconcilerLogger(a.logger),
	)
	a.boardRoot = dom.NewElement("board")
	a.overlayRoot = dom.NewElement("overlay")
	a.renderer = render.New(a.backend,
		render.WithTheme(render.ThemeByName(opts.Config.Theme)),
		render.WithLogger(a.logger),
	)

	ctrlOpts := []drag.Option{
		drag.WithOverlay(a.rec, a.overlayRoot),
		drag.WithLogger(a.logger),
	}
	if a.rules != nil {
		ctrlOpts = append(ctrlOpts, drag.WithRules(a.rules))
	}
	if opts.Config.Drag.AutoScroll {
		ctrlOpts = append(ctrlOpts, drag.WithAutoScroll(drag.NewAutoScroller(
			drag.WithScrollInterval(opts.Config.Drag.ScrollInterval()),
			drag.WithScrollMargin(opts.Config.Drag.ScrollMargin),
		)))
	}
	a.ctrl = drag.New(a.project, a.viewport, ctrlOpts...)

	a.subscribe()
	return a, nil
}

// subscribe routes model and gesture events into redraw requests.
func (a *App) subscribe() {
	repaint := func(ev *event.Event) error {
		a.requestRedraw()
		return nil
	}
	a.project.Bus().On(sched.EventRefresh, repaint)
	a.project.Bus().On(sched.EventCommit, repaint)
	a.ctrl.Bus().On(event.CatchAll, repaint)
}

// Project returns the board's project, for seeding and tests.
func (a *App) Project() *sched.Project { return a.project }

// Close releases the store and rule engine.
func (a *App) Close() {
	if a.rules != nil {
		a.rules.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
	}
}

// Run drives the event loop until the context ends or the user
// quits. Quitting returns ErrQuit.
func (a *App) Run(ctx context.Context) error {
	a.backend.OnResize(func(w, h int) {
		a.viewport.Width = max(w-a.view.backlogWidth-1, 1)
		a.viewport.Height = max(h-1, 1)
		a.requestRedraw()
	})
	a.backend.EnableMouse()
	a.draw(true)

	g, ctx := errgroup.WithContext(ctx)
	events := make(chan backend.Event)

	g.Go(func() error {
		// PollEvent only returns on input; the shutdown path posts a
		// synthetic event to unblock it.
		for {
			ev := a.backend.PollEvent()
			select {
			case events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		a.backend.PostEvent(backend.Event{Type: backend.EventNone})
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.redraw:
				a.draw(false)
			case ev := <-events:
				if err := a.handle(ctx, ev); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) handle(ctx context.Context, ev backend.Event) error {
	switch ev.Type {
	case backend.EventResize:
		a.renderer.Invalidate()
		a.draw(true)

	case backend.EventKey:
		return a.handleKey(ev)

	case backend.EventMouse:
		a.handleMouse(ctx, ev)
	}
	return nil
}

func (a *App) handleKey(ev backend.Event) error {
	switch {
	case ev.Key == backend.KeyCtrlC, ev.Key == backend.KeyCtrlQ,
		ev.Key == backend.KeyRune && ev.Rune == 'q':
		return ErrQuit

	case ev.Key == backend.KeyEscape:
		a.ctrl.Abort()

	case ev.Key == backend.KeyLeft:
		a.viewport.ScrollBy(-4)
		a.requestRedraw()

	case ev.Key == backend.KeyRight:
		a.viewport.ScrollBy(4)
		a.requestRedraw()
	}
	return nil
}

func (a *App) handleMouse(ctx context.Context, ev backend.Event) {
	pos := drag.Position{X: ev.MouseX, Y: ev.MouseY}

	switch ev.MouseButton {
	case backend.MouseLeft:
		if a.ctrl.State() == drag.StateDragging {
			a.ctrl.Move(pos)
			return
		}
		if task := a.view.BacklogTaskAt(ev.MouseX, ev.MouseY); task != nil {
			if err := a.ctrl.Start(task, pos); err != nil {
				a.logger.Warn("starting drag", zap.Error(err))
			}
		}

	case backend.MouseNone:
		if a.ctrl.State() != drag.StateDragging {
			return
		}
		if err := a.ctrl.Drop(ctx, pos); err != nil {
			a.logger.Error("drop failed", zap.Error(err))
			a.backend.Beep()
			a.requestRedraw()
		}

	case backend.MouseWheelUp:
		a.viewport.ScrollBy(-2)
		a.requestRedraw()

	case backend.MouseWheelDown:
		a.viewport.ScrollBy(2)
		a.requestRedraw()
	}
}

func (a *App) requestRedraw() {
	select {
	case a.redraw <- struct{}{}:
	default:
	}
}

// draw syncs the board tree and paints board plus drag overlay.
func (a *App) draw(force bool) {
	var opts []dom.SyncOption
	if force {
		opts = append(opts, dom.WithForce())
	}
	if _, err := a.rec.Sync(a.boardRoot, a.view.Nodes(), opts...); err != nil {
		a.logger.Error("board sync failed", zap.Error(err))
		return
	}
	a.renderer.Draw(a.boardRoot, a.overlayRoot)
}
