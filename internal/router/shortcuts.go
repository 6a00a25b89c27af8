package router

import "symlayer/internal/keys"

// Shortcut is the action bound to a key pressed while the emoji-meta key is
// held. At most one of UI and Key is set; a Shortcut with neither swallows the
// key.
type Shortcut struct {
	UI  UIAction
	Key keys.Code
}

var emojiMetaShortcuts = map[keys.Code]Shortcut{
	keys.CodeV:       {UI: UIClipboard},
	keys.CodeSpace:   {UI: UIEmojiPicker},
	keys.CodeM:       {Key: keys.CodeMenu},
	keys.CodeQ:       {Key: keys.CodeTab},
	keys.CodeDel:     {Key: keys.CodeEscape},
	keys.CodeDictate: {},
	keys.CodeEnter:   {UI: UILaunchHome},
	keys.CodeE:       {UI: UILaunchEmail},
	keys.CodeA:       {UI: UIAssist},
	keys.CodeC:       {UI: UIContacts},
	keys.CodeB:       {UI: UIBrowser},
	keys.CodeI:       {UI: UISettings},
	keys.CodeP:       {UI: UIMusic},
	keys.CodeL:       {UI: UICalendar},
}

// EmojiMetaShortcut returns the shortcut bound to a key.
func EmojiMetaShortcut(c keys.Code) (Shortcut, bool) {
	s, ok := emojiMetaShortcuts[c]
	return s, ok
}

// onEmojiMetaShortcut runs the shortcut bound to ev, if any. The meta key is
// released first so the focused application does not see a Meta chord, and
// the emoji-meta release is then skipped.
func (r *Router) onEmojiMetaShortcut(ev keys.Event) bool {
	s, ok := emojiMetaShortcuts[ev.Code]
	if !ok {
		return false
	}
	if code := r.emojiMeta.ModKeyCode; code != keys.CodeUnknown {
		r.forward(code, 0, keys.Up)
	}
	switch {
	case s.UI != "":
		r.emit(UI(s.UI))
	case s.Key != keys.CodeUnknown:
		r.forward(s.Key, 0, keys.Down)
		r.forward(s.Key, 0, keys.Up)
	}
	r.emojiMeta.SetSkipKeyUp()
	return true
}
