package input

import tea "github.com/charmbracelet/bubbletea"

// Action is an editing operation bound to one or more keys.
type Action int

const (
	ActionNone Action = iota

	ActionCharacterForward
	ActionCharacterBackward
	ActionWordForward
	ActionWordBackward
	ActionLineStart
	ActionLineEnd

	ActionDeleteCharacterBackward
	ActionDeleteCharacterForward
	ActionDeleteWordBackward
	ActionDeleteWordForward
	ActionDeleteBeforeCursor
	ActionDeleteAfterCursor

	// ActionCursorUp and ActionCursorDown walk history, or cycle
	// completions while a completion menu is open.
	ActionCursorUp
	ActionCursorDown

	ActionComplete
	ActionCompleteBackward

	ActionSubmit
	ActionCancel
	ActionInterrupt
	ActionClearScreen
	ActionPaste
)

var actionNames = map[Action]string{
	ActionNone:                    "None",
	ActionCharacterForward:        "CharacterForward",
	ActionCharacterBackward:       "CharacterBackward",
	ActionWordForward:             "WordForward",
	ActionWordBackward:            "WordBackward",
	ActionLineStart:               "LineStart",
	ActionLineEnd:                 "LineEnd",
	ActionDeleteCharacterBackward: "DeleteCharacterBackward",
	ActionDeleteCharacterForward:  "DeleteCharacterForward",
	ActionDeleteWordBackward:      "DeleteWordBackward",
	ActionDeleteWordForward:       "DeleteWordForward",
	ActionDeleteBeforeCursor:      "DeleteBeforeCursor",
	ActionDeleteAfterCursor:       "DeleteAfterCursor",
	ActionCursorUp:                "CursorUp",
	ActionCursorDown:              "CursorDown",
	ActionComplete:                "Complete",
	ActionCompleteBackward:        "CompleteBackward",
	ActionSubmit:                  "Submit",
	ActionCancel:                  "Cancel",
	ActionInterrupt:               "Interrupt",
	ActionClearScreen:             "ClearScreen",
	ActionPaste:                   "Paste",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "Unknown"
}

// KeyBinding maps tea.KeyMsg strings to an action.
type KeyBinding struct {
	Keys   []string
	Action Action
}

// KeyMap resolves key presses to actions.
type KeyMap struct {
	lookup map[string]Action
}

func NewKeyMap(bindings []KeyBinding) *KeyMap {
	km := &KeyMap{lookup: make(map[string]Action)}
	for _, b := range bindings {
		for _, key := range b.Keys {
			km.lookup[key] = b.Action
		}
	}
	return km
}

// DefaultKeyMap returns emacs-style bindings. Ctrl+D is bound to forward
// delete; the model turns it into end-of-input when the line is empty.
func DefaultKeyMap() *KeyMap {
	return NewKeyMap([]KeyBinding{
		{Keys: []string{"right", "ctrl+f"}, Action: ActionCharacterForward},
		{Keys: []string{"left", "ctrl+b"}, Action: ActionCharacterBackward},
		{Keys: []string{"alt+right", "ctrl+right", "alt+f"}, Action: ActionWordForward},
		{Keys: []string{"alt+left", "ctrl+left", "alt+b"}, Action: ActionWordBackward},
		{Keys: []string{"home", "ctrl+a"}, Action: ActionLineStart},
		{Keys: []string{"end", "ctrl+e"}, Action: ActionLineEnd},

		{Keys: []string{"backspace", "ctrl+h"}, Action: ActionDeleteCharacterBackward},
		{Keys: []string{"delete", "ctrl+d"}, Action: ActionDeleteCharacterForward},
		{Keys: []string{"ctrl+w", "alt+backspace"}, Action: ActionDeleteWordBackward},
		{Keys: []string{"alt+d", "alt+delete"}, Action: ActionDeleteWordForward},
		{Keys: []string{"ctrl+u"}, Action: ActionDeleteBeforeCursor},
		{Keys: []string{"ctrl+k"}, Action: ActionDeleteAfterCursor},

		{Keys: []string{"up", "ctrl+p"}, Action: ActionCursorUp},
		{Keys: []string{"down", "ctrl+n"}, Action: ActionCursorDown},

		{Keys: []string{"tab"}, Action: ActionComplete},
		{Keys: []string{"shift+tab"}, Action: ActionCompleteBackward},

		{Keys: []string{"enter"}, Action: ActionSubmit},
		{Keys: []string{"esc"}, Action: ActionCancel},
		{Keys: []string{"ctrl+c"}, Action: ActionInterrupt},
		{Keys: []string{"ctrl+l"}, Action: ActionClearScreen},
		{Keys: []string{"ctrl+v"}, Action: ActionPaste},
	})
}

// Lookup returns ActionNone for unbound keys.
func (km *KeyMap) Lookup(msg tea.KeyMsg) Action {
	if action, ok := km.lookup[msg.String()]; ok {
		return action
	}
	return ActionNone
}
