// Package flow contains the top-level state machine that sequences content
// generation: setting, level, room, image, interactive play, summarization,
// and advancement. It owns all flow-state transitions and is the only writer
// of per-room content into the cache.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dreamdelve/internal/game/content"
	"dreamdelve/internal/game/dungeon"
	"dreamdelve/internal/llm"
	"dreamdelve/internal/pipeline"
	"dreamdelve/internal/prompt"
	"dreamdelve/internal/session"
)

// ImageGenerator renders a prompt to an image reference. *imagegen.Client
// satisfies it; a nil generator disables the image step.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config carries the orchestrator's run parameters.
type Config struct {
	Levels        int
	RoomsPerLevel int
	LevelWidth    int
	LevelHeight   int
	Temperature   float32
	// StateRetries bounds how many times a failed generation state is
	// re-entered before the run surfaces a recoverable error and stops.
	StateRetries int
	// Provider is the backend new sessions start on; the pipeline may
	// switch them to a fallback mid-dialogue.
	Provider llm.Provider
}

// Orchestrator drives one game session. Construct with New, start Run in its
// own goroutine, consume Events and feed Submit from the presentation layer.
type Orchestrator struct {
	pipe    *pipeline.Pipeline
	prompts *prompt.Store
	gen     *dungeon.Generator
	cache   *content.Cache
	images  ImageGenerator
	cfg     Config
	log     *zap.Logger

	state         State
	setting       string
	theme         string
	level         *dungeon.Level
	current       dungeon.Position
	playSess      *session.Session
	roomSummaries []string
	lastNarration string
	defeated      bool

	events chan Event
	input  chan string
	wg     sync.WaitGroup
}

func New(pipe *pipeline.Pipeline, prompts *prompt.Store, gen *dungeon.Generator, cache *content.Cache, images ImageGenerator, cfg Config, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		pipe:    pipe,
		prompts: prompts,
		gen:     gen,
		cache:   cache,
		images:  images,
		cfg:     cfg,
		log:     log,
		state:   StateIdle,
		events:  make(chan Event, 32),
		input:   make(chan string, 1),
	}
}

// Events is the stream consumed by the presentation layer. It is closed when
// Run returns.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Submit feeds one line of player input (free text during interactive play,
// a direction during room selection).
func (o *Orchestrator) Submit(text string) {
	o.input <- text
}

// Run executes the state machine until the game ends or the context is
// cancelled. It never runs more than one outstanding generation per session;
// the lazily generated revisit descriptions run on their own sessions in the
// background, gated by the same shared pacer.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.events)
	defer o.wg.Wait()

	o.state = StateSettingCreation
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var next State
		var err error
		switch o.state {
		case StateSettingCreation:
			next, err = o.withStateRetry(ctx, o.runSettingCreation)
		case StateLevelGeneration:
			next, err = o.withStateRetry(ctx, o.runLevelGeneration)
		case StateRoomGeneration:
			next, err = o.withStateRetry(ctx, o.runRoomGeneration)
		case StateImageGeneration:
			next, err = o.runImageGeneration(ctx)
		case StateInteractivePlay:
			next, err = o.runInteractivePlay(ctx)
		case StateRoomSummarization:
			next, err = o.withStateRetry(ctx, o.runRoomSummarization)
		case StateRoomSelection:
			next, err = o.runRoomSelection(ctx)
		case StateLevelAdvance:
			next, err = o.withStateRetry(ctx, o.runLevelAdvance)
		case StateGameOver:
			o.runGameOver(ctx)
			return nil
		default:
			return fmt.Errorf("orchestrator entered unknown state %v", o.state)
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.emit(ctx, Event{
				State: o.state,
				Text:  "The dream frays at the edges; the dungeon refuses to take shape. This run cannot continue.",
				Err:   err,
				Done:  true,
			})
			return err
		}
		o.state = next
	}
}

// withStateRetry re-enters a state whose generation work failed terminally,
// up to the configured budget. Session ordering and cache consistency are
// preserved across re-entries because each attempt starts fresh sessions and
// cache writes are atomic per room.
func (o *Orchestrator) withStateRetry(ctx context.Context, fn func(context.Context) (State, error)) (State, error) {
	var lastErr error
	for attempt := 0; attempt <= o.cfg.StateRetries; attempt++ {
		next, err := fn(ctx)
		if err == nil {
			return next, nil
		}
		lastErr = err
		if !errors.Is(err, pipeline.ErrGenerationFailed) {
			return StateIdle, err
		}
		o.log.Warn("state failed, retrying",
			zap.Stringer("state", o.state),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return StateIdle, fmt.Errorf("state %v exhausted its retries: %w", o.state, lastErr)
}

func (o *Orchestrator) runSettingCreation(ctx context.Context) (State, error) {
	sess := o.newSession("setting")
	text, err := o.pipe.Send(ctx, o.fill("setting_creation", nil), sess)
	if err != nil {
		return StateIdle, err
	}
	o.setting = text
	o.emit(ctx, Event{State: StateSettingCreation, Text: text})
	return StateLevelGeneration, nil
}

func (o *Orchestrator) runLevelGeneration(ctx context.Context) (State, error) {
	index := 1
	if o.level != nil {
		index = o.level.Index + 1
	}

	level, err := o.gen.Generate(index, o.cfg.RoomsPerLevel, o.cfg.LevelWidth, o.cfg.LevelHeight)
	if err != nil {
		return StateIdle, fmt.Errorf("level generation: %w", err)
	}

	sess := o.newSession(fmt.Sprintf("level-theme:%d", index))
	theme, err := o.pipe.Send(ctx, o.fill("level_theme", map[string]string{
		"setting": o.setting,
	}, "level_index", index), sess)
	if err != nil {
		return StateIdle, err
	}

	o.level = level
	o.theme = theme
	o.current = level.Entrance
	level.Room(level.Entrance).Visited = true

	o.emit(ctx, Event{State: StateLevelGeneration, Text: theme, LevelIndex: index, Room: level.Entrance})
	return StateRoomGeneration, nil
}

func (o *Orchestrator) runRoomGeneration(ctx context.Context) (State, error) {
	room := o.level.Room(o.current)
	sess := o.newSession("room:" + room.Pos.String())

	text, err := o.pipe.Send(ctx, o.fill("room_description", map[string]string{
		"setting":   o.setting,
		"theme":     o.theme,
		"room_kind": room.Kind.String(),
		"position":  room.Pos.String(),
	}, "level_index", o.level.Index), sess)
	if err != nil {
		return StateIdle, err
	}

	o.cache.SetDescription(room.Pos, text)
	return StateImageGeneration, nil
}

func (o *Orchestrator) runImageGeneration(ctx context.Context) (State, error) {
	if o.images == nil {
		return StateInteractivePlay, nil
	}

	rc, _ := o.cache.Get(o.current)
	imgPrompt := o.fill("image_prompt", map[string]string{"description": rc.Description})
	ref, err := o.images.Generate(ctx, imgPrompt)
	if err != nil {
		// Images are flavor; a failed render never blocks the descent.
		o.log.Warn("image generation failed", zap.Stringer("room", o.current), zap.Error(err))
		return StateInteractivePlay, nil
	}
	o.cache.SetImage(o.current, ref)
	return StateInteractivePlay, nil
}

func (o *Orchestrator) runInteractivePlay(ctx context.Context) (State, error) {
	rc, _ := o.cache.Get(o.current)

	o.playSess = o.newSession("play:" + o.current.String())
	o.playSess.SetSystem(o.fill("room_play_system", map[string]string{
		"setting":     o.setting,
		"theme":       o.theme,
		"description": rc.Description,
	}))

	o.emit(ctx, Event{
		State:      StateInteractivePlay,
		Text:       rc.Description,
		ImageRef:   rc.ImageRef,
		Prompting:  true,
		LevelIndex: o.level.Index,
		Room:       o.current,
	})

	for {
		playerInput, err := o.awaitInput(ctx)
		if err != nil {
			return StateIdle, err
		}

		raw, err := o.pipe.Send(ctx, playerInput, o.playSess)
		if err != nil {
			if ctx.Err() != nil {
				return StateIdle, ctx.Err()
			}
			// Degrade to a clearly-labeled in-narrative stall; the session
			// stays consistent and the player may simply try again.
			o.emit(ctx, Event{
				State:     StateInteractivePlay,
				Text:      "[The narrator falls silent. The dungeon holds its breath; try your action again.]",
				Prompting: true,
				Err:       err,
			})
			continue
		}

		narration, signal := ParseReply(raw)
		o.lastNarration = narration

		switch signal {
		case SignalObjectiveComplete:
			o.emit(ctx, Event{State: StateInteractivePlay, Text: narration, LevelIndex: o.level.Index, Room: o.current})
			return StateRoomSummarization, nil
		case SignalPlayerDefeated:
			o.emit(ctx, Event{State: StateInteractivePlay, Text: narration, LevelIndex: o.level.Index, Room: o.current})
			o.defeated = true
			return StateGameOver, nil
		default:
			o.emit(ctx, Event{State: StateInteractivePlay, Text: narration, Prompting: true, LevelIndex: o.level.Index, Room: o.current})
		}
	}
}

func (o *Orchestrator) runRoomSummarization(ctx context.Context) (State, error) {
	summary, err := o.pipe.Send(ctx, o.fill("room_summary", nil), o.playSess)
	if err != nil {
		return StateIdle, err
	}

	pos := o.current
	o.cache.SetSummary(pos, summary)
	o.roomSummaries = append(o.roomSummaries, fmt.Sprintf("%s: %s", pos, summary))
	o.scheduleRevisit(ctx, pos, summary)

	if pos == o.level.Exit {
		return StateLevelAdvance, nil
	}
	return StateRoomSelection, nil
}

func (o *Orchestrator) runRoomSelection(ctx context.Context) (State, error) {
	room := o.level.Room(o.current)

	choices := make([]Choice, 0, 4)
	for _, d := range room.Exits() {
		pos, _ := room.Connected(d)
		choices = append(choices, Choice{
			Direction: d,
			Pos:       pos,
			Visited:   o.level.Room(pos).Visited,
		})
	}

	o.emit(ctx, Event{
		State:      StateRoomSelection,
		Choices:    choices,
		Prompting:  true,
		LevelIndex: o.level.Index,
		Room:       o.current,
	})

	for {
		playerInput, err := o.awaitInput(ctx)
		if err != nil {
			return StateIdle, err
		}

		choice, ok := matchChoice(choices, playerInput)
		if !ok {
			o.emit(ctx, Event{
				State:     StateRoomSelection,
				Text:      "There is no passage that way.",
				Choices:   choices,
				Prompting: true,
			})
			continue
		}

		target := o.level.Room(choice.Pos)
		o.current = choice.Pos
		target.Visited = true

		// A room with cached content is shown from the cache; revisits
		// never cost a backend call.
		if rc, ok := o.cache.Get(choice.Pos); ok {
			text := rc.RevisitDescription
			if text == "" {
				// The lazy revisit pass has not landed yet; the summary is
				// the consistent stand-in.
				text = rc.Summary
			}
			o.emit(ctx, Event{
				State:      StateRoomSelection,
				Text:       text,
				ImageRef:   rc.ImageRef,
				LevelIndex: o.level.Index,
				Room:       choice.Pos,
			})
			return StateRoomSelection, nil
		}

		return StateRoomGeneration, nil
	}
}

func (o *Orchestrator) runLevelAdvance(ctx context.Context) (State, error) {
	sess := o.newSession(fmt.Sprintf("level-summary:%d", o.level.Index))
	text, err := o.pipe.Send(ctx, o.fill("level_summary", map[string]string{
		"room_summaries": strings.Join(o.roomSummaries, "\n"),
	}, "level_index", o.level.Index), sess)
	if err != nil {
		return StateIdle, err
	}

	o.emit(ctx, Event{State: StateLevelAdvance, Text: text, LevelIndex: o.level.Index})

	// Per-level state dies here: the cache is cleared and the play session
	// replaced on the next room. In-flight revisit generations still target
	// this level's records, so they must land before the records are dropped;
	// a revisit applied after the reset would carry stale text into a
	// position the next level reuses.
	o.wg.Wait()
	o.cache.Reset()
	o.roomSummaries = nil
	o.playSess = nil

	if o.level.Index >= o.cfg.Levels {
		return StateGameOver, nil
	}
	return StateLevelGeneration, nil
}

func (o *Orchestrator) runGameOver(ctx context.Context) {
	text := "The descent is complete. The dreamer wakes."
	if o.defeated {
		sess := o.newSession("epitaph")
		epitaph, err := o.pipe.Send(ctx, o.fill("game_over", map[string]string{
			"narration": o.lastNarration,
		}), sess)
		if err != nil {
			o.log.Warn("epitaph generation failed", zap.Error(err))
			text = "The dungeon claims another dreamer."
		} else {
			text = epitaph
		}
	}
	o.emit(ctx, Event{State: StateGameOver, Text: text, Done: true})
}

// scheduleRevisit lazily generates the revisit description for a room that
// was just left, on its own session so it can overlap interactive play. The
// claim keeps it from being scheduled twice.
func (o *Orchestrator) scheduleRevisit(ctx context.Context, pos dungeon.Position, summary string) {
	if !o.cache.ClaimRevisit(pos) {
		return
	}

	setting := o.setting
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		sess := o.newSession("revisit:" + pos.String())
		text, err := o.pipe.Send(ctx, o.fill("room_revisit", map[string]string{
			"setting": setting,
			"summary": summary,
		}), sess)
		if err != nil {
			o.log.Warn("revisit generation failed", zap.Stringer("room", pos), zap.Error(err))
			return
		}
		o.cache.SetRevisit(pos, text)
	}()
}

func (o *Orchestrator) newSession(purpose string) *session.Session {
	return session.New(purpose, o.cfg.Provider, o.cfg.Temperature)
}

// fill renders a named template. Extra key/value pairs go into the loose
// context.
func (o *Orchestrator) fill(name string, strCtx map[string]string, loose ...any) string {
	var looseCtx map[string]any
	if len(loose) > 0 {
		looseCtx = make(map[string]any, len(loose)/2)
		for i := 0; i+1 < len(loose); i += 2 {
			looseCtx[fmt.Sprint(loose[i])] = loose[i+1]
		}
	}
	return o.prompts.Fill(o.prompts.Get(name), strCtx, looseCtx)
}

func (o *Orchestrator) awaitInput(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case text := <-o.input:
		return strings.TrimSpace(text), nil
	}
}

func (o *Orchestrator) emit(ctx context.Context, e Event) {
	select {
	case o.events <- e:
	case <-ctx.Done():
	}
}

// matchChoice resolves player input against the offered directions,
// accepting full names and single-letter abbreviations.
func matchChoice(choices []Choice, input string) (Choice, bool) {
	norm := strings.ToLower(strings.TrimSpace(input))
	for _, c := range choices {
		name := c.Direction.String()
		if norm == name || (len(norm) == 1 && norm == name[:1]) {
			return c, true
		}
	}
	return Choice{}, false
}
