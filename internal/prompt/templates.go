package prompt

// Built-in template set. Placeholders use {key} syntax and are resolved
// leniently by Store.Fill.
var builtin = map[string]string{
	"setting_creation": `You are the world-builder for a procedurally generated dungeon crawl.
Invent a dark, atmospheric setting for the whole descent: name the place, its
history, and the reason the protagonist is descending into it. Keep it to two
short paragraphs. Do not describe any individual room yet.`,

	"level_theme": `The game's setting:
{setting}

The protagonist has reached depth level {level_index}. Invent a theme for this
level that fits the setting: its dominant materials, light, sounds, and the
kind of danger that dwells here. Two to four sentences. Do not describe any
individual room.`,

	"room_description": `Setting:
{setting}

Level theme:
{theme}

The protagonist enters a {room_kind} room at position {position} on level
{level_index}. Describe the room in two or three vivid sentences, then state
one concrete objective the protagonist must accomplish before moving on. End
with the objective on its own line prefixed with "Objective:".`,

	"room_revisit": `Setting:
{setting}

The protagonist earlier visited this room:
{summary}

Write a brief revisit description (one or two sentences) for passing through
the room again. It is already explored; reference what happened there without
repeating the full description.`,

	"room_play_system": `You are the narrator and referee of one room in a dungeon crawl.

Setting:
{setting}

Level theme:
{theme}

Room:
{description}

The player will act in this room until the room's objective is satisfied or
the player is defeated. Respond to every player action with a JSON object and
nothing else:
{"narration": "...", "signal": ""}

Rules for "narration": two to four vivid sentences describing the consequence
of the action. Stay consistent with the room. If an action is impossible,
say why and hint at alternatives.
Rules for "signal": "" while play continues, "objective_complete" the moment
the room's objective is satisfied, "player_defeated" if the player dies or is
irrecoverably lost. Use the signal field only; never announce completion or
death in prose alone.`,

	"room_summary": `Summarize what happened in this room in at most three sentences, past
tense, third person. Cover how the objective was resolved and anything the
protagonist gained or lost. This summary seeds later revisit text, so be
concrete.`,

	"level_summary": `The protagonist has cleared level {level_index}. Room by room, this
happened:
{room_summaries}

Write a short closing passage (two or three sentences) for the level, and a
one-sentence hook for the descent to the next level.`,

	"image_prompt": `One-line visual description for an image generator, no prose framing:
{description}`,

	"game_over": `The protagonist has been defeated.
{narration}

Write a brief, somber epitaph for this run. Two sentences.`,
}
